package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"finch/internal/core"
)

// handleExpenses records a new expense: the description is categorized by
// the trained pipeline, never by the caller.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p := parseBody(r)
	if p.err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	description := p.get("description")
	if description == "" {
		writeError(w, http.StatusUnprocessableEntity, "description is required")
		return
	}

	priceRaw := p.get("price")
	if priceRaw == "" {
		writeError(w, http.StatusUnprocessableEntity, "price is required")
		return
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "price must be numeric")
		return
	}

	expense, err := s.recorder.Record(r.Context(), description, price, time.Time{})
	if err != nil {
		if errors.Is(err, core.ErrEmptyDescription) {
			writeError(w, http.StatusUnprocessableEntity, "description is required")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to record expense", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record expense")
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, expense)
}

// handleTransactions lists the full history, or one category's history plus
// its total when ?category= is given. Always newest first.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	if category := r.URL.Query().Get("category"); category != "" {
		expenses, err := s.store.ExpensesByCategory(ctx, category)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read category transactions",
				"category", category, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load transactions")
			return
		}
		if expenses == nil {
			expenses = []core.Expense{}
		}

		total, err := s.store.TotalForCategory(ctx, category)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read category total",
				"category", category, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load transactions")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"category":     category,
			"transactions": expenses,
			"total_spent":  total,
		})
		return
	}

	expenses, err := s.store.AllExpenses(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": expenses})
}
