package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finch/internal/core"
	"finch/internal/storage"
)

// keywordRecorder is a stand-in expense pipeline: categorize by keyword,
// persist to the store.
type keywordRecorder struct {
	store *storage.MemoryRepository
}

func categorizeKeyword(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "coffee"), strings.Contains(lower, "lunch"):
		return "Food_Drinks"
	case strings.Contains(lower, "electric"):
		return "Utilities"
	default:
		return core.Uncategorized
	}
}

func (r keywordRecorder) Record(ctx context.Context, description string, price float64, ts time.Time) (core.Expense, error) {
	if strings.TrimSpace(description) == "" {
		return core.Expense{}, core.ErrEmptyDescription
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	category := categorizeKeyword(description)
	id, err := r.store.InsertExpense(ctx, description, category, price, ts)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{ID: id, Description: description, Category: category, Price: price, Timestamp: ts}, nil
}

type fakeIngestor struct {
	count int
	err   error
}

func (f fakeIngestor) Ingest(context.Context) (int, error) { return f.count, f.err }

func newTestServer(t *testing.T) (*Server, *storage.MemoryRepository) {
	t.Helper()
	store := storage.NewMemoryRepository()
	srv := NewServer(":0", store, keywordRecorder{store: store}, fakeIngestor{count: 3})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := doRequest(srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestCreateExpense(t *testing.T) {
	srv, store := newTestServer(t)

	rr := doRequest(srv, http.MethodPost, "/expenses", "description=Morning+coffee&price=4.50")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var expense core.Expense
	decodeBody(t, rr, &expense)
	if expense.Category != "Food_Drinks" || expense.Price != 4.50 {
		t.Fatalf("unexpected expense: %+v", expense)
	}

	all, _ := store.AllExpenses(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected 1 stored expense, got %d", len(all))
	}
}

func TestCreateExpenseJSONBody(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader(`{"description": "electric bill", "price": 80.5}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var expense core.Expense
	decodeBody(t, rr, &expense)
	if expense.Category != "Utilities" || expense.Price != 80.5 {
		t.Fatalf("unexpected expense: %+v", expense)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]string{
		"missing description": "price=4.50",
		"missing price":       "description=coffee",
		"non-numeric price":   "description=coffee&price=abc",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rr := doRequest(srv, http.MethodPost, "/expenses", body); rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rr.Code)
			}
		})
	}

	if rr := doRequest(srv, http.MethodGet, "/expenses", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /expenses status = %d, want 405", rr.Code)
	}
}

func TestOverview(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	store.UpsertBudget(ctx, "Food_Drinks", 100)
	store.UpsertBudget(ctx, "Utilities", 100)
	store.InsertExpense(ctx, "lunch", "Food_Drinks", 50, time.Now())

	rr := doRequest(srv, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp overviewResponse
	decodeBody(t, rr, &resp)
	if resp.TotalBudget != 200 || resp.TotalSpent != 50 || resp.SpentPercentage != 25 {
		t.Fatalf("unexpected overview: %+v", resp)
	}

	// The overview read must have refreshed the monthly sentinel.
	budgets, _ := store.Budgets(ctx)
	var monthly *core.Budget
	for i := range budgets {
		if budgets[i].Category == core.MonthlyBudget {
			monthly = &budgets[i]
		}
	}
	if monthly == nil || monthly.Amount != 200 {
		t.Fatalf("monthly sentinel not refreshed: %+v", budgets)
	}
}

func TestOverviewUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := doRequest(srv, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		store.InsertExpense(ctx, "item", "Shopping", 10, base.Add(time.Duration(i)*time.Hour))
	}

	rr := doRequest(srv, http.MethodGet, "/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp dashboardResponse
	decodeBody(t, rr, &resp)
	if resp.TotalSpent != 70 {
		t.Fatalf("total = %f, want 70", resp.TotalSpent)
	}
	if len(resp.Recent) != 5 {
		t.Fatalf("recent length = %d, want 5", len(resp.Recent))
	}
	if resp.CategoryTotals["Shopping"] != 70 {
		t.Fatalf("category totals = %v", resp.CategoryTotals)
	}
}

func TestBudgets(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(srv, http.MethodPost, "/budgets", "category=Food_Drinks&amount=500")
	if rr.Code != http.StatusOK {
		t.Fatalf("set budget status = %d, body = %s", rr.Code, rr.Body.String())
	}

	// Second upsert overwrites, leaving one row.
	doRequest(srv, http.MethodPost, "/budgets", "category=Food_Drinks&amount=400")
	doRequest(srv, http.MethodPost, "/expenses", "description=lunch&price=100")

	rr = doRequest(srv, http.MethodGet, "/budgets", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list budgets status = %d", rr.Code)
	}

	var resp struct {
		Budgets []core.BudgetStatus `json:"budgets"`
	}
	decodeBody(t, rr, &resp)

	byCategory := make(map[string]core.BudgetStatus)
	for _, b := range resp.Budgets {
		byCategory[b.Category] = b
	}
	if b := byCategory["Food_Drinks"]; b.Amount != 400 || b.Spent != 100 {
		t.Fatalf("Food_Drinks status = %+v", b)
	}
	// The listing includes the refreshed monthly sentinel.
	if b := byCategory[core.MonthlyBudget]; b.Amount != 400 {
		t.Fatalf("monthly status = %+v", b)
	}
}

func TestBudgetValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, body := range map[string]string{
		"missing category":   "amount=100",
		"missing amount":     "category=Travel",
		"non-numeric amount": "category=Travel&amount=lots",
	} {
		t.Run(name, func(t *testing.T) {
			if rr := doRequest(srv, http.MethodPost, "/budgets", body); rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rr.Code)
			}
		})
	}
}

func TestTransactions(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store.InsertExpense(ctx, "lunch", "Food_Drinks", 30, base)
	store.InsertExpense(ctx, "power", "Utilities", 70, base.Add(time.Hour))

	rr := doRequest(srv, http.MethodGet, "/transactions", "")
	var resp struct {
		Transactions []core.Expense `json:"transactions"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Transactions) != 2 || resp.Transactions[0].Description != "power" {
		t.Fatalf("unexpected transactions: %+v", resp.Transactions)
	}

	rr = doRequest(srv, http.MethodGet, "/transactions?category=Food_Drinks", "")
	var filtered struct {
		Category     string         `json:"category"`
		Transactions []core.Expense `json:"transactions"`
		TotalSpent   float64        `json:"total_spent"`
	}
	decodeBody(t, rr, &filtered)
	if filtered.Category != "Food_Drinks" || len(filtered.Transactions) != 1 || filtered.TotalSpent != 30 {
		t.Fatalf("unexpected filtered response: %+v", filtered)
	}
}

func TestAlerts(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	store.UpsertBudget(ctx, "Food_Drinks", 100)
	store.InsertExpense(ctx, "feast", "Food_Drinks", 95, time.Now())

	rr := doRequest(srv, http.MethodGet, "/alerts", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Alerts []core.Alert `json:"alerts"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Alerts) != 1 || resp.Alerts[0].Kind != core.AlertNearing {
		t.Fatalf("unexpected alerts: %+v", resp.Alerts)
	}
}

func TestSummary(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	ts := time.Now()

	store.InsertExpense(ctx, "a", "Food_Drinks", 30, ts)
	store.InsertExpense(ctx, "b", "Utilities", 70, ts)
	store.InsertExpense(ctx, "c", "Food_Drinks", 20, ts)

	rr := doRequest(srv, http.MethodGet, "/summary", "")
	var resp struct {
		Summary []core.CategorySummary `json:"summary"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Summary) != 2 {
		t.Fatalf("summary length = %d", len(resp.Summary))
	}
	if resp.Summary[0].Category != "Utilities" || resp.Summary[1].Category != "Food_Drinks" {
		t.Fatalf("summary not ordered by spend: %+v", resp.Summary)
	}
}

func TestSummaryCacheInvalidatedOnWrite(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	store.InsertExpense(ctx, "a", "Food_Drinks", 30, time.Now())
	doRequest(srv, http.MethodGet, "/summary", "") // warm the cache

	doRequest(srv, http.MethodPost, "/expenses", "description=electric+bill&price=70")

	rr := doRequest(srv, http.MethodGet, "/summary", "")
	var resp struct {
		Summary []core.CategorySummary `json:"summary"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Summary) != 2 {
		t.Fatalf("stale cache served after write: %+v", resp.Summary)
	}
}

func TestFeedRefresh(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(srv, http.MethodPost, "/feed/refresh", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]int
	decodeBody(t, rr, &resp)
	if resp["inserted"] != 3 {
		t.Fatalf("inserted = %d, want 3", resp["inserted"])
	}
}

func TestFeedRefreshFailure(t *testing.T) {
	store := storage.NewMemoryRepository()
	srv := NewServer(":0", store, keywordRecorder{store: store},
		fakeIngestor{err: errors.New("connection refused")})
	defer srv.Shutdown(context.Background())

	rr := doRequest(srv, http.MethodPost, "/feed/refresh", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}

	// A failed refresh must not prevent later requests.
	if rr := doRequest(srv, http.MethodGet, "/dashboard", ""); rr.Code != http.StatusOK {
		t.Fatalf("server unhealthy after feed failure: %d", rr.Code)
	}
}

func TestRateLimitOnPost(t *testing.T) {
	srv, _ := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/expenses",
			strings.NewReader("description=coffee&price=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Real-IP", "10.0.0.9")
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected rate limiting to kick in")
	}
}
