package main

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finch/internal/amqp"
	"finch/internal/classify"
	"finch/internal/config"
	"finch/internal/feed"
	apphttp "finch/internal/http"
	applog "finch/internal/log"
	"finch/internal/services"
	"finch/internal/storage"
	"finch/internal/worker"
)

// eventPublisher adapts the AMQP client to the service port.
type eventPublisher struct {
	client *amqp.Client
}

func (p eventPublisher) PublishExpenseRecorded(ctx context.Context, id int64, category string, price float64, source string) error {
	return p.client.PublishExpenseRecorded(ctx, amqp.NewExpenseRecordedMessage(id, category, price, source))
}

func main() {
	// Load .env file if present (ignored in production deployments).
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "finch",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	pipeline, err := classify.LoadPipeline(cfg.VectorizerPath, cfg.ModelPath)
	if err != nil {
		logger.Error("Failed to load classifier artifacts",
			"vectorizer", cfg.VectorizerPath, "model", cfg.ModelPath, "error", err)
		os.Exit(1)
	}

	var store services.Store
	switch cfg.DataBackend {
	case "sqlite":
		store, err = storage.NewSQLiteRepository(cfg.DBPath)
		if err != nil {
			logger.Error("Failed to open database", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		logger.Info("Initialized sqlite backend", "path", cfg.DBPath)
	default:
		store = storage.NewMemoryRepository()
		logger.Info("Initialized memory backend")
	}
	defer store.Close()

	// The broker is optional: no URL means events are simply not published.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = eventPublisher{client: client}
		logger.Info("Connected to AMQP broker",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	expenses := services.NewExpenseService(store, pipeline, publisher)
	ingest := services.NewIngestService(feed.NewClient(cfg.FeedURL), expenses)
	feedWorker := worker.NewFeedWorker(ingest, cfg.FeedFetchOnStart, cfg.FeedPollInterval)

	srv := apphttp.NewServer(":"+cfg.Port, store, expenses, ingest)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finch server",
			"port", cfg.Port, "backend", cfg.DataBackend, "feed_url", cfg.FeedURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := feedWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
