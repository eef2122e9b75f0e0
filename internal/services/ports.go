// Package services orchestrates the categorization pipeline, the ledger and
// budget store, and the optional event broker.
package services

import (
	"context"
	"time"

	"finch/internal/core"
	"finch/internal/feed"
)

// Ports for the stores and collaborators the services depend on.
type (
	// Ledger is the append-only expense store plus its aggregate queries.
	Ledger interface {
		InsertExpense(ctx context.Context, description, category string, price float64, ts time.Time) (int64, error)
		TotalSpent(ctx context.Context) (float64, error)
		RecentExpenses(ctx context.Context, n int) ([]core.Expense, error)
		AllExpenses(ctx context.Context) ([]core.Expense, error)
		ExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error)
		TotalForCategory(ctx context.Context, category string) (float64, error)
		SumByCategory(ctx context.Context) (map[string]float64, error)
		CategorySummary(ctx context.Context) ([]core.CategorySummary, error)
	}

	// BudgetStore owns the per-category budgets and the monthly sentinel.
	BudgetStore interface {
		UpsertBudget(ctx context.Context, category string, amount float64) error
		Budgets(ctx context.Context) ([]core.Budget, error)
		TotalBudget(ctx context.Context) (float64, error)
		BudgetsWithSpend(ctx context.Context) ([]core.BudgetStatus, error)
	}

	// Store is what both storage backends implement.
	Store interface {
		Ledger
		BudgetStore
		Close() error
	}

	// EventPublisher announces recorded expenses to interested consumers.
	EventPublisher interface {
		PublishExpenseRecorded(ctx context.Context, id int64, category string, price float64, source string) error
	}

	// FeedFetcher retrieves the external transaction batch.
	FeedFetcher interface {
		Fetch(ctx context.Context) ([]feed.Transaction, error)
	}
)
