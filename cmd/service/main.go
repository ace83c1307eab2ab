// Package main is the entry point for the quotebook service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// durableStore is a persistent key-value backend that reports readiness.
type durableStore interface {
	ports.DurableStore
	ports.HealthChecker
}

// remoteSource is a sync source that reports readiness.
type remoteSource interface {
	ports.RemoteQuoteSource
	ports.HealthChecker
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting quotebook",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("sync_source", cfg.Sync.Source),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	durable, closeDurable, err := openDurable(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeDurable()

	remote, err := newRemote(cfg, durable, logger)
	if err != nil {
		return err
	}

	healthRegistry := ports.NewHealthRegistry()
	healthRegistry.SetCheckTimeout(cfg.Client.Timeout)
	for _, checker := range []ports.HealthChecker{durable, remote} {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering health check: %w", err)
		}
	}

	metrics := app.NewMetrics(prometheus.DefaultRegisterer)

	store := app.NewQuoteStore(app.QuoteStoreConfig{
		Durable: durable,
		Logger:  logger,
		Metrics: metrics,
	})
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("loading quotes: %w", err)
	}

	sessions := storage.NewSessionStore(cfg.Session.TTL)
	recorder := app.NewSessionRecorder(sessions, nil)

	view := app.NewViewService(app.ViewServiceConfig{
		Store:               store,
		Recorder:            recorder,
		EmptyFilterFallback: cfg.Display.EmptyFilterFallback,
		Logger:              logger,
		Metrics:             metrics,
	})

	syncService := app.NewSyncService(app.SyncServiceConfig{
		Store:      store,
		Remote:     remote,
		Durable:    durable,
		SourceName: remote.Name(),
		Logger:     logger,
		Metrics:    metrics,
	})

	healthHandler := handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime), nil,
		handlers.WithOptionalChecks(remote.Name()))

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:         logger,
		AppConfig:      &cfg.App,
		HealthHandler:  healthHandler,
		QuoteHandler:   handlers.NewQuoteHandler(store, view, app.NewTransfer(store, logger, metrics)),
		SessionHandler: handlers.NewSessionHandler(recorder, nil),
		SyncHandler:    handlers.NewSyncHandler(syncService),
		Timeout:        cfg.Server.RequestTimeout,
		RouteTimeouts:  syncRouteTimeouts(cfg),
	})

	bgCtx, stopBackground := context.WithCancel(ctx)
	background, bgCtx := errgroup.WithContext(bgCtx)

	if cfg.Session.TTL > 0 && cfg.Session.SweepInterval > 0 {
		background.Go(func() error {
			sessions.Run(bgCtx, cfg.Session.SweepInterval)
			return nil
		})
	}

	if cfg.Sync.Enabled {
		scheduler := app.NewSyncScheduler(syncService, cfg.Sync.StartupDelay, cfg.Sync.Interval, logger)
		background.Go(func() error {
			scheduler.Run(bgCtx)
			return nil
		})
	}

	serverErr := server.Start()

	err = waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)

	stopBackground()
	_ = background.Wait()

	return err
}

// openDurable opens the configured durable store. The returned func
// releases it.
func openDurable(cfg config.StorageConfig) (durableStore, func(), error) {
	if cfg.Driver == config.StorageMemory {
		return storage.NewMemoryStore(), func() {}, nil
	}

	store, err := storage.OpenSQLiteStore(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			slog.Error("closing sqlite store", slog.Any("error", err))
		}
	}, nil
}

// newRemote builds the sync source selected by sync.source.
func newRemote(cfg *config.Config, durable ports.DurableStore, logger *slog.Logger) (remoteSource, error) {
	if cfg.Sync.Source != config.SourceHTTP {
		return storage.NewSimulatedRemote(durable), nil
	}

	httpClient, err := clients.New(clients.FromConfig(cfg.Client, cfg.Services.Quote, logger))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return acl.NewPostsSource(acl.PostsSourceConfig{
		Client: httpClient,
		Limit:  cfg.Services.Quote.Limit,
		Logger: logger,
	}), nil
}

// waitForShutdown blocks until a signal or server error, then drains the
// server within shutdownTimeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}

// syncRouteTimeouts stretches the deadline of routes that reach the remote
// source so a full retry sequence fits inside one request.
func syncRouteTimeouts(cfg *config.Config) map[string]time.Duration {
	budget := time.Duration(cfg.Client.Retry.MaxAttempts)*(cfg.Client.Timeout+cfg.Client.Retry.MaxInterval) +
		cfg.Server.RequestTimeout
	if budget <= cfg.Server.RequestTimeout {
		return nil
	}

	return map[string]time.Duration{
		"/api/v1/sync":         budget,
		"/api/v1/sync/focus":   budget,
		"/api/v1/sync/resolve": budget,
	}
}
