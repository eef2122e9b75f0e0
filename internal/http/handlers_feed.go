package http

import (
	"log/slog"
	"net/http"
)

// handleFeedRefresh triggers a manual ingest of the external feed. Failures
// are reported to the caller but never take the process down; rows recorded
// before a mid-batch failure stay committed.
func (s *Server) handleFeedRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.ingestor.Ingest(r.Context())
	if count > 0 {
		s.invalidateCaches()
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Manual feed refresh failed",
			"error", err, "inserted", count)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":    "failed to fetch external transactions",
			"inserted": count,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"inserted": count})
}
