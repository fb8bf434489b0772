package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/adapter/fsm"
	oteladapter "github.com/neomorfeo/quoteflow/internal/adapter/otel"
	promadapter "github.com/neomorfeo/quoteflow/internal/adapter/prometheus"
	riveradapter "github.com/neomorfeo/quoteflow/internal/adapter/river"
	"github.com/neomorfeo/quoteflow/internal/adapter/sqlite"
	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/config"
	"github.com/neomorfeo/quoteflow/internal/logger"

	handler "github.com/neomorfeo/quoteflow/internal/adapter/http"
)

const serviceName = "quoteflow"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logger())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := oteladapter.Setup(ctx, cfg.Otel())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := promadapter.NewMetrics(registry)

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	// The expiry worker is registered before the service exists; the
	// closure reads svc once jobs start running.
	var svc *app.QuoteService
	riverClient, err := riveradapter.Setup(ctx, db, riveradapter.Options{
		Logger:   log,
		Workers:  cfg.Jobs.Workers,
		Observer: metrics,
		Expirer: riveradapter.ExpirerFunc(func(ctx context.Context) (int, error) {
			return svc.ExpireOverdueQuotes(ctx)
		}),
		ExpirySweepInterval: cfg.Jobs.ExpirySweepInterval,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher := promadapter.NewCountingPublisher(
		oteladapter.NewTracingPublisher(riveradapter.NewPublisher(riverClient)), metrics)
	notifier := promadapter.NewCountingNotifier(
		oteladapter.NewTracingNotifier(riveradapter.NewNotifier(riverClient)), metrics)

	// --- Application ---
	svc = app.NewQuoteService(app.Deps{
		Repo:      oteladapter.NewTracingQuoteRepository(store.Quotes()),
		Directory: oteladapter.NewTracingDirectory(store.Directory()),
		Publisher: publisher,
		Notifier:  notifier,
		Validator: fsm.New(),
		Tx:        store,
		Logger:    log,
	}, app.WithPolicy(policy(cfg)))

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			log.Warn("river stop", zap.Error(err))
		}
	}()

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           newRouter(svc, log, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("quoteflow listening",
			zap.String("addr", srv.Addr),
			zap.String("docs", "http://localhost:"+cfg.App.Port+"/docs"),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("stopped")
	return nil
}

func policy(cfg *config.Config) app.Policy {
	return app.Policy{
		DefaultValidity: cfg.Quote.Validity,
		ExtensionWindow: cfg.Quote.ExtensionWindow,
		DefaultCurrency: cfg.Quote.Currency,
		DefaultPerPage:  cfg.Quote.PageSize,
		MaxPerPage:      cfg.Quote.MaxPageSize,
		ExpiryBatchSize: cfg.Jobs.ExpirySweepBatch,
	}
}

// newRouter mounts the quote API, its OpenAPI docs and /metrics.
func newRouter(svc *app.QuoteService, log *zap.Logger, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewMux()
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(handler.RequestLogger(log))
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	api := humachi.New(router, huma.DefaultConfig(serviceName, "0.1.0"))
	handler.Register(api, svc)

	return router
}
