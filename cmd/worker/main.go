package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PratikDhanave/ticket-view-sync/internal/config"
	"github.com/PratikDhanave/ticket-view-sync/internal/enrich"
	"github.com/PratikDhanave/ticket-view-sync/internal/httpserver"
	"github.com/PratikDhanave/ticket-view-sync/internal/ingest"
	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
	"github.com/PratikDhanave/ticket-view-sync/internal/poller"
	"github.com/PratikDhanave/ticket-view-sync/internal/runstate"
	"github.com/PratikDhanave/ticket-view-sync/internal/store"
	"github.com/PratikDhanave/ticket-view-sync/internal/zendesk"
)

// main boots the worker: config → DB → schema → scheduler (+ ops server).
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to durable storage (Postgres) using a connection pool.
	db, err := store.NewPostgresStore(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		return 1
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", "error", err)
		return 1
	}

	api, err := zendesk.New(zendesk.Options{
		BaseURL:       cfg.ZendeskBaseURL,
		Email:         cfg.ZendeskEmail,
		APIToken:      cfg.ZendeskAPIToken,
		Timeout:       cfg.RequestTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  500 * time.Millisecond,
		RateLimit:     cfg.RateLimit,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("build api client", "error", err)
		return 1
	}

	tracker := runstate.New(db, func() time.Time { return time.Now().UTC() }, logger)
	p := poller.New(api, ingest.New(enrich.New(api, logger), db, logger), tracker, poller.Options{
		ForceRefresh: cfg.ForceRefresh,
		Concurrency:  cfg.IngestConcurrency,
		Logger:       logger,
	})

	var (
		srv     *http.Server
		opsErrs <-chan error
	)
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpserver.NewRouter(cfg, db, tracker, logging.Component(logger, "http")),
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Info("ops server listening", "addr", cfg.HTTPAddr)
		opsErrs = startOpsServer(srv, stop)
	}

	logger.Info("worker started",
		"poll_interval", cfg.PollInterval.String(),
		"force_refresh", cfg.ForceRefresh,
		"ingest_concurrency", cfg.IngestConcurrency)

	err = poller.NewScheduler(p, cfg.PollInterval, logger).Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("ops server shutdown", "error", serr)
		}
	}

	code := exitCode(err, opsErrs)
	if code == 0 {
		logger.Info("worker stopped")
	} else {
		logger.Error("worker stopped abnormally", "scheduler_error", err)
	}
	return code
}

// startOpsServer serves srv in the background. A serve failure other than
// a graceful close is delivered on the returned channel and stops the worker.
func startOpsServer(srv *http.Server, stop context.CancelFunc) <-chan error {
	errs := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("ops server: %w", err)
			stop()
		}
	}()
	return errs
}

// exitCode is 0 only for a shutdown triggered by a signal. A failed ops
// server or a scheduler error other than cancellation exits 1.
func exitCode(schedErr error, opsErrs <-chan error) int {
	select {
	case err := <-opsErrs:
		slog.Error("ops server failed", "error", err)
		return 1
	default:
	}
	if schedErr != nil && !errors.Is(schedErr, context.Canceled) {
		return 1
	}
	return 0
}
