package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"finch/internal/core"
)

// handleBudgets upserts a budget on POST and lists budgets with their spend
// on GET. The listing refreshes the monthly sentinel first, as the original
// budget page did on every visit.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.setBudget(w, r)
	case http.MethodGet:
		s.listBudgets(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) setBudget(w http.ResponseWriter, r *http.Request) {
	p := parseBody(r)
	if p.err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	category := p.get("category")
	amountRaw := p.get("amount")
	if category == "" || amountRaw == "" {
		writeError(w, http.StatusUnprocessableEntity, "both category and amount are required")
		return
	}

	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "amount must be numeric")
		return
	}

	if err := s.store.UpsertBudget(r.Context(), category, amount); err != nil {
		slog.ErrorContext(r.Context(), "Failed to upsert budget",
			"category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update budget")
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusOK, core.Budget{Category: category, Amount: amount})
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Re-establish the monthly cache row before reading the list.
	if _, err := s.store.TotalBudget(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to refresh total budget", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load budgets")
		return
	}

	statuses, err := s.store.BudgetsWithSpend(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read budgets", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load budgets")
		return
	}
	if statuses == nil {
		statuses = []core.BudgetStatus{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"budgets": statuses})
}
