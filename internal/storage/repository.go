// Package storage persists the expense ledger and the per-category budgets.
// The primary backend is SQLite; an in-memory backend with identical
// semantics exists for tests and throwaway runs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finch/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the expenses and budgets tables. Expenses are
// append-only; budgets are upserted by category.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies schema migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense appends one expense to the ledger and returns its id.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, description, category string, price float64, ts time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (description, category, price, timestamp) VALUES (?, ?, ?, ?)`,
		description, category, price, core.FormatTimestamp(ts))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", id,
		"category", category,
		"price", price)

	return id, nil
}

// TotalSpent returns the sum of all expense prices, 0 for an empty ledger.
func (r *SQLiteRepository) TotalSpent(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(price), 0) FROM expenses`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total spent: %w", err)
	}
	return total, nil
}

// RecentExpenses returns at most n expenses, most recent first.
func (r *SQLiteRepository) RecentExpenses(ctx context.Context, n int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, price, timestamp
		 FROM expenses ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// AllExpenses returns the full ledger, most recent first.
func (r *SQLiteRepository) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, price, timestamp
		 FROM expenses ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("all expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// ExpensesByCategory returns the ledger entries for one category, most
// recent first.
func (r *SQLiteRepository) ExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, price, timestamp
		 FROM expenses WHERE category = ? ORDER BY timestamp DESC, id DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// TotalForCategory returns the spend total for one category, 0 when the
// category has no expenses.
func (r *SQLiteRepository) TotalForCategory(ctx context.Context, category string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(price), 0) FROM expenses WHERE category = ?`, category).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total for category: %w", err)
	}
	return total, nil
}

// SumByCategory returns per-category totals with one entry per category that
// has at least one expense.
func (r *SQLiteRepository) SumByCategory(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(price) FROM expenses GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums[category] = total
	}

	return sums, rows.Err()
}

// CategorySummary returns per-category totals ordered descending by spend.
func (r *SQLiteRepository) CategorySummary(ctx context.Context) ([]core.CategorySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(price) FROM expenses GROUP BY category ORDER BY SUM(price) DESC`)
	if err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	defer rows.Close()

	var summary []core.CategorySummary
	for rows.Next() {
		var s core.CategorySummary
		if err := rows.Scan(&s.Category, &s.Total); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		summary = append(summary, s)
	}

	return summary, rows.Err()
}

// UpsertBudget inserts or overwrites the budget for a category.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, category string, amount float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO budgets (category, amount) VALUES (?, ?)`,
		category, amount)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated", "category", category, "amount", amount)
	return nil
}

// Budgets returns every budget row, including the "monthly" sentinel, in
// table order. The alert engine depends on this iteration order.
func (r *SQLiteRepository) Budgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, amount FROM budgets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.Amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}

	return budgets, rows.Err()
}

// TotalBudget sums all per-category budgets and writes the result back into
// the "monthly" row so the cached total stays consistent. The write-back is
// intentional: every read of the total re-establishes the invariant.
func (r *SQLiteRepository) TotalBudget(ctx context.Context) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin total budget tx: %w", err)
	}
	defer tx.Rollback()

	var total float64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM budgets WHERE category != ?`,
		core.MonthlyBudget).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum budgets: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO budgets (category, amount) VALUES (?, ?)`,
		core.MonthlyBudget, total)
	if err != nil {
		return 0, fmt.Errorf("refresh monthly budget: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit total budget tx: %w", err)
	}

	return total, nil
}

// BudgetsWithSpend left-joins budgets against per-category expense totals.
// Categories without expenses report zero spend.
func (r *SQLiteRepository) BudgetsWithSpend(ctx context.Context) ([]core.BudgetStatus, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.category, b.amount, COALESCE(SUM(e.price), 0) AS spent
		 FROM budgets b
		 LEFT JOIN expenses e ON b.category = e.category
		 GROUP BY b.category, b.amount
		 ORDER BY b.rowid`)
	if err != nil {
		return nil, fmt.Errorf("budgets with spend: %w", err)
	}
	defer rows.Close()

	var statuses []core.BudgetStatus
	for rows.Next() {
		var s core.BudgetStatus
		if err := rows.Scan(&s.Category, &s.Amount, &s.Spent); err != nil {
			return nil, fmt.Errorf("scan budget status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var ts string
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.Price, &ts); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		parsed, err := core.ParseTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("parse expense timestamp %q: %w", ts, err)
		}
		e.Timestamp = parsed
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}
