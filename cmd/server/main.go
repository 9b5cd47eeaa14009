package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"waste-dispatch-service/internal/adapters/events"
	"waste-dispatch-service/internal/adapters/fixtures"
	"waste-dispatch-service/internal/adapters/memory"
	"waste-dispatch-service/internal/adapters/metrics"
	"waste-dispatch-service/internal/adapters/repositories"
	"waste-dispatch-service/internal/api"
	"waste-dispatch-service/internal/auth"
	"waste-dispatch-service/internal/config"
	"waste-dispatch-service/internal/platform/db"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
	"waste-dispatch-service/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main is the application composition root.
// It wires concrete adapters (PostgreSQL or memory, Redis, Prometheus) behind ports
// and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := obs.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uow, conn, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}

	publisher, closePublisher, err := openPublisher(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithPublisher(publisher),
		services.WithPolicy(services.Policy{
			FillThreshold:   cfg.Dispatch.FillThreshold,
			FallbackEnabled: cfg.Dispatch.FallbackEnabled,
			UnlockOnCancel:  cfg.Dispatch.UnlockOnCancel,
		}),
	}

	deps := api.Deps{
		Tokens: auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL),
		Logger: logger,
	}
	if conn != nil {
		deps.DB = conn
	}

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		dispatchMetrics := metrics.NewDispatchCollector()
		if err := dispatchMetrics.Register(reg); err != nil {
			return fmt.Errorf("register dispatch metrics: %w", err)
		}
		httpMetrics := metrics.NewHTTPCollector()
		if err := httpMetrics.Register(reg); err != nil {
			return fmt.Errorf("register http metrics: %w", err)
		}

		opts = append(opts, services.WithMetrics(dispatchMetrics))
		deps.HTTPMetrics = httpMetrics
		deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	deps.Dispatcher = services.NewDispatcher(uow, opts...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "store", cfg.Database.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the unit of work for the configured store. The *sql.DB is
// nil for the memory store.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (ports.UnitOfWork, *sql.DB, error) {
	if cfg.Store == "memory" {
		store := memory.NewStore()
		if cfg.SeedPath != "" {
			f, err := fixtures.Load(cfg.SeedPath)
			if err != nil {
				return nil, nil, err
			}
			store.Seed(f, time.Now())
			logger.Info("memory store seeded", "path", cfg.SeedPath,
				"points", len(f.Points), "orders", len(f.Orders))
		}
		return store, nil, nil
	}

	conn, err := db.Open(ctx, cfg.URL, db.Pool{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		ConnLifetime: cfg.ConnLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	// Schema creation is idempotent; seeding is left to dispatchctl.
	if err := repositories.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return repositories.NewPostgresUnitOfWork(conn), conn, nil
}

func openPublisher(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (ports.EventPublisher, func(), error) {
	if !cfg.Enabled {
		return events.NopPublisher{}, func() {}, nil
	}

	client, err := events.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("route events published to redis", "addr", cfg.Addr, "channel", cfg.Channel)
	return events.NewRedisPublisher(client, cfg.Channel, logger), func() { _ = client.Close() }, nil
}
