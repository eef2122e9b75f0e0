package core

import (
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the storage format for expense timestamps, matching
// SQLite's CURRENT_TIMESTAMP output and the external feed's date field.
const TimestampLayout = "2006-01-02 15:04:05"

// MonthlyBudget is the sentinel budget row that caches the sum of all
// per-category budgets. It is rewritten on every total-budget read.
const MonthlyBudget = "monthly"

// Uncategorized is assigned when the classifier produces a class id outside
// the known category table.
const Uncategorized = "Uncategorized"

type (
	// Expense is one recorded transaction. Expenses are append-only: once
	// written they are never updated or deleted.
	Expense struct {
		ID          int64     `json:"id"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Price       float64   `json:"price"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// Budget is a spend ceiling for one category. Amounts are stored as
	// entered; negative and zero values are accepted.
	Budget struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	// BudgetStatus pairs a budget with the amount already spent against it.
	BudgetStatus struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Spent    float64 `json:"spent"`
	}

	// CategorySummary is the total spend for one category.
	CategorySummary struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	AlertKind string

	// Alert is derived from current budgets and spend on every request and
	// never persisted.
	Alert struct {
		Category string    `json:"category"`
		Kind     AlertKind `json:"kind"`
		Amount   float64   `json:"amount"`
		Message  string    `json:"message"`
	}
)

const (
	AlertExceeded AlertKind = "exceeded"
	AlertNearing  AlertKind = "nearing"
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
)

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// FormatTimestamp renders t in the storage layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp, tolerating the RFC3339 form some
// SQLite drivers emit for TEXT columns.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
