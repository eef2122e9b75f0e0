package http

import (
	"log/slog"
	"net/http"

	"finch/internal/core"
)

// handleAlerts recomputes threshold alerts from current budgets and spend.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	budgets, err := s.store.Budgets(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read budgets", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}

	spend, err := s.store.SumByCategory(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read spend totals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}

	alerts := s.alertEngine.Compute(budgets, spend)
	if alerts == nil {
		alerts = []core.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}
