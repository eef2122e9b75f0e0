package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"finch/internal/core"
)

// MemoryRepository mirrors SQLiteRepository semantics in process memory.
// Used by tests and by the memory data backend.
type MemoryRepository struct {
	mu       sync.RWMutex
	expenses []core.Expense
	nextID   int64
	budgets  []core.Budget // table order, same contract as the SQLite backend
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) InsertExpense(_ context.Context, description, category string, price float64, ts time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.expenses = append(r.expenses, core.Expense{
		ID:          id,
		Description: description,
		Category:    category,
		Price:       price,
		// Stored at second precision, as the TEXT column would hold it.
		Timestamp: ts.Truncate(time.Second),
	})

	return id, nil
}

func (r *MemoryRepository) TotalSpent(context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, e := range r.expenses {
		total += e.Price
	}
	return total, nil
}

func (r *MemoryRepository) RecentExpenses(ctx context.Context, n int) ([]core.Expense, error) {
	all, err := r.AllExpenses(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (r *MemoryRepository) AllExpenses(context.Context) ([]core.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedCopy(r.expenses), nil
}

func (r *MemoryRepository) ExpensesByCategory(_ context.Context, category string) ([]core.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []core.Expense
	for _, e := range r.expenses {
		if e.Category == category {
			matched = append(matched, e)
		}
	}
	return sortedCopy(matched), nil
}

func (r *MemoryRepository) TotalForCategory(_ context.Context, category string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, e := range r.expenses {
		if e.Category == category {
			total += e.Price
		}
	}
	return total, nil
}

func (r *MemoryRepository) SumByCategory(context.Context) (map[string]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sums := make(map[string]float64)
	for _, e := range r.expenses {
		sums[e.Category] += e.Price
	}
	return sums, nil
}

func (r *MemoryRepository) CategorySummary(ctx context.Context) ([]core.CategorySummary, error) {
	sums, err := r.SumByCategory(ctx)
	if err != nil {
		return nil, err
	}

	summary := make([]core.CategorySummary, 0, len(sums))
	for category, total := range sums {
		summary = append(summary, core.CategorySummary{Category: category, Total: total})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Total != summary[j].Total {
			return summary[i].Total > summary[j].Total
		}
		return summary[i].Category < summary[j].Category
	})

	return summary, nil
}

func (r *MemoryRepository) UpsertBudget(_ context.Context, category string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setBudget(category, amount)
	return nil
}

// setBudget replaces an existing row or appends a new one. Replacing moves
// the row to the end, matching INSERT OR REPLACE rowid behavior in SQLite.
func (r *MemoryRepository) setBudget(category string, amount float64) {
	for i, b := range r.budgets {
		if b.Category == category {
			r.budgets = append(r.budgets[:i], r.budgets[i+1:]...)
			break
		}
	}
	r.budgets = append(r.budgets, core.Budget{Category: category, Amount: amount})
}

func (r *MemoryRepository) Budgets(context.Context) ([]core.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Budget, len(r.budgets))
	copy(out, r.budgets)
	return out, nil
}

func (r *MemoryRepository) TotalBudget(context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total float64
	for _, b := range r.budgets {
		if b.Category != core.MonthlyBudget {
			total += b.Amount
		}
	}
	r.setBudget(core.MonthlyBudget, total)

	return total, nil
}

func (r *MemoryRepository) BudgetsWithSpend(ctx context.Context) ([]core.BudgetStatus, error) {
	sums, err := r.SumByCategory(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]core.BudgetStatus, 0, len(r.budgets))
	for _, b := range r.budgets {
		statuses = append(statuses, core.BudgetStatus{
			Category: b.Category,
			Amount:   b.Amount,
			Spent:    sums[b.Category],
		})
	}
	return statuses, nil
}

func sortedCopy(expenses []core.Expense) []core.Expense {
	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
