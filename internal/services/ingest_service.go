package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finch/internal/core"
)

// IngestService pulls the external transaction feed and records each entry
// through the expense pipeline.
type IngestService struct {
	fetcher  FeedFetcher
	expenses *ExpenseService
}

func NewIngestService(fetcher FeedFetcher, expenses *ExpenseService) *IngestService {
	return &IngestService{
		fetcher:  fetcher,
		expenses: expenses,
	}
}

// Ingest fetches the feed and records every entry, committing per item.
// A mid-batch store failure leaves the earlier rows committed and returns
// the count inserted so far alongside the error. Feed failures are reported
// to the caller and are never fatal to the process.
func (s *IngestService) Ingest(ctx context.Context) (int, error) {
	transactions, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	inserted := 0
	for _, txn := range transactions {
		ts := time.Now()
		if txn.Date != "" {
			if parsed, err := core.ParseTimestamp(txn.Date); err == nil {
				ts = parsed
			} else {
				slog.WarnContext(ctx, "Feed entry has unparseable date, using current time",
					"date", txn.Date, "description", txn.Description)
			}
		}

		if _, err := s.expenses.record(ctx, txn.Description, txn.Amount, ts, "feed"); err != nil {
			return inserted, fmt.Errorf("record feed transaction %q: %w", txn.Description, err)
		}
		inserted++
	}

	slog.InfoContext(ctx, "Feed transactions ingested", "count", inserted)
	return inserted, nil
}
