// Package http exposes the JSON API over the categorization and budget
// aggregation core: overview, dashboard, expenses, budgets, transactions,
// alerts, category summary, and the manual feed refresh.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finch/internal/alerts"
	"finch/internal/cache"
	"finch/internal/core"
	"finch/internal/services"
)

// ExpenseRecorder is the slice of the expense service the handlers need.
type ExpenseRecorder interface {
	Record(ctx context.Context, description string, price float64, ts time.Time) (core.Expense, error)
}

// FeedIngestor triggers a manual feed ingest.
type FeedIngestor interface {
	Ingest(ctx context.Context) (int, error)
}

type Server struct {
	http.Server

	store       services.Store
	recorder    ExpenseRecorder
	ingestor    FeedIngestor
	alertEngine *alerts.Engine
	rateLimiter *rateLimiter

	// Read-side caches, purged on every write.
	overviewCache *cache.LRUCache[overviewResponse]
	summaryCache  *cache.LRUCache[[]core.CategorySummary]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store services.Store, recorder ExpenseRecorder, ingestor FeedIngestor) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         store,
		recorder:      recorder,
		ingestor:      ingestor,
		alertEngine:   alerts.NewEngine(),
		rateLimiter:   newRateLimiter(),
		overviewCache: cache.NewLRUCache[overviewResponse](10, 30*time.Second),
		summaryCache:  cache.NewLRUCache[[]core.CategorySummary](10, 30*time.Second),
	}

	mux.HandleFunc("/", s.withMiddleware(s.handleOverview))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/budgets", s.withMiddleware(s.handleBudgets))
	mux.HandleFunc("/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/alerts", s.withMiddleware(s.handleAlerts))
	mux.HandleFunc("/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("/feed/refresh", s.withMiddleware(s.handleFeedRefresh))

	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidateCaches drops cached aggregates after any write.
func (s *Server) invalidateCaches() {
	s.overviewCache.Purge()
	s.summaryCache.Purge()
}

// withMiddleware adds security headers, request logging, and per-IP rate
// limiting on mutating requests.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
