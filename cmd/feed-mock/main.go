// feed-mock serves a small static batch of transactions in the format the
// feed ingester expects. Useful for local development when the real
// transaction source is unavailable.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"finch/internal/core"
	"finch/internal/feed"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	now := time.Now()
	transactions := []feed.Transaction{
		{Description: "Grocery store weekly shop", Amount: 62.35, Date: core.FormatTimestamp(now.Add(-48 * time.Hour))},
		{Description: "Monthly electric bill", Amount: 88.20, Date: core.FormatTimestamp(now.Add(-24 * time.Hour))},
		{Description: "Coffee with friends", Amount: 7.80, Date: core.FormatTimestamp(now)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(transactions); err != nil {
			logger.Error("Failed to encode transactions", "error", err)
		}
		logger.Info("Served transaction batch", "count", len(transactions))
	})

	logger.Info("Starting feed mock", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
