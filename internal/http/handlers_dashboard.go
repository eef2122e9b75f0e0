package http

import (
	"log/slog"
	"math"
	"net/http"

	"finch/internal/core"
)

type overviewResponse struct {
	TotalBudget     float64 `json:"total_budget"`
	TotalSpent      float64 `json:"total_spent"`
	SpentPercentage float64 `json:"spent_percentage"`
}

type dashboardResponse struct {
	TotalSpent     float64            `json:"total_spent"`
	Recent         []core.Expense     `json:"recent"`
	CategoryTotals map[string]float64 `json:"category_totals"`
}

const recentLimit = 5

// handleOverview serves the home view: total budget against total spend.
// Reading the total budget refreshes the monthly sentinel row as a side
// effect, so even this read-only endpoint keeps the cache consistent.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cached, ok := s.overviewCache.Get("overview"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()

	budget, err := s.store.TotalBudget(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read total budget", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load overview")
		return
	}

	spent, err := s.store.TotalSpent(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read total spent", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load overview")
		return
	}

	var pct float64
	if budget > 0 {
		pct = math.Round(spent/budget*100*100) / 100
	}

	resp := overviewResponse{
		TotalBudget:     budget,
		TotalSpent:      spent,
		SpentPercentage: pct,
	}
	s.overviewCache.Set("overview", resp)

	writeJSON(w, http.StatusOK, resp)
}

// handleDashboard serves total spend, the five most recent expenses, and
// per-category totals.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	total, err := s.store.TotalSpent(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read total spent", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	recent, err := s.store.RecentExpenses(ctx, recentLimit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read recent expenses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	if recent == nil {
		recent = []core.Expense{}
	}

	sums, err := s.store.SumByCategory(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read category totals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalSpent:     total,
		Recent:         recent,
		CategoryTotals: sums,
	})
}

// handleSummary serves per-category totals, highest spend first.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cached, ok := s.summaryCache.Get("summary"); ok {
		writeJSON(w, http.StatusOK, map[string]any{"summary": cached})
		return
	}

	summary, err := s.store.CategorySummary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read category summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	if summary == nil {
		summary = []core.CategorySummary{}
	}
	s.summaryCache.Set("summary", summary)

	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}
