package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finch/internal/classify"
	"finch/internal/core"
)

// ExpenseService records expenses: categorize the description, append to the
// ledger, then best-effort publish an event.
type ExpenseService struct {
	store       Store
	categorizer classify.Categorizer
	publisher   EventPublisher
}

func NewExpenseService(store Store, categorizer classify.Categorizer, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:       store,
		categorizer: categorizer,
		publisher:   publisher,
	}
}

// Record categorizes and persists one expense. A zero ts defaults to now.
// The event publish never fails the request; the expense is already stored.
func (s *ExpenseService) Record(ctx context.Context, description string, price float64, ts time.Time) (core.Expense, error) {
	return s.record(ctx, description, price, ts, "manual")
}

func (s *ExpenseService) record(ctx context.Context, description string, price float64, ts time.Time, source string) (core.Expense, error) {
	if ts.IsZero() {
		ts = time.Now()
	}

	category := s.categorizer.Categorize(description)

	expense := core.Expense{
		Description: description,
		Category:    category,
		Price:       price,
		Timestamp:   ts,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.InsertExpense(ctx, description, category, price, ts)
	if err != nil {
		return core.Expense{}, fmt.Errorf("store expense: %w", err)
	}
	expense.ID = id

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseRecorded(ctx, id, category, price, source); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense event",
				"id", id, "error", err)
		}
	}

	return expense, nil
}

func (s *ExpenseService) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
