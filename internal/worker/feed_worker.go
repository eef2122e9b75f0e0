// Package worker runs the background feed ingestion: a one-shot fetch at
// startup and, when configured, periodic polling.
package worker

import (
	"context"
	"log/slog"
	"time"

	"finch/internal/services"
)

type FeedWorker struct {
	ingest       *services.IngestService
	fetchOnStart bool
	pollInterval time.Duration
}

func NewFeedWorker(ingest *services.IngestService, fetchOnStart bool, pollInterval time.Duration) *FeedWorker {
	return &FeedWorker{
		ingest:       ingest,
		fetchOnStart: fetchOnStart,
		pollInterval: pollInterval,
	}
}

// Run blocks until ctx is cancelled. Ingest failures are logged and the
// worker keeps going; the feed is a best-effort collaborator.
func (w *FeedWorker) Run(ctx context.Context) error {
	if w.fetchOnStart {
		w.fetch(ctx)
	}

	if w.pollInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.fetch(ctx)
		}
	}
}

func (w *FeedWorker) fetch(ctx context.Context) {
	count, err := w.ingest.Ingest(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Feed ingest failed", "error", err, "inserted", count)
		return
	}
	slog.InfoContext(ctx, "Feed ingest completed", "inserted", count)
}
