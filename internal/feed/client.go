// Package feed fetches transactions from the external (mock) transaction
// endpoint. The feed is best-effort: any failure is reported to the caller
// and must never take the process down.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Transaction is one entry from the feed payload. Amount arrives as a JSON
// number; Date uses the storage timestamp layout and may be absent.
type Transaction struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// Client fetches the feed over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch retrieves and decodes the transaction list. Non-2xx responses and
// malformed payloads are errors; the caller decides how loudly to report.
func (c *Client) Fetch(ctx context.Context) ([]Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var transactions []Transaction
	if err := json.NewDecoder(resp.Body).Decode(&transactions); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}

	return transactions, nil
}
