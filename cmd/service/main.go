// Package main is the entry point for the service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/go-async-context/internal/adapters/http"
	"github.com/jsamuelsen/go-async-context/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-async-context/internal/app"
	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/platform/config"
	"github.com/jsamuelsen/go-async-context/internal/platform/logging"
	"github.com/jsamuelsen/go-async-context/internal/platform/telemetry"
	"github.com/jsamuelsen/go-async-context/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

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

	// Telemetry first so the context metrics use the configured meter provider.
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Registry:     cfg.Context.Name,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	contextMetrics, err := telemetry.NewContextMetrics(nil)
	if err != nil {
		return fmt.Errorf("initializing context metrics: %w", err)
	}

	registry := asynccontext.NewRegistry(
		cfg.Context.Name,
		asynccontext.Values(cfg.Context.Defaults),
		logging.NewMissingReadHook(cfg.Context.MissingRead),
		asynccontext.WithObserver(contextMetrics),
	)

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
		Store: registry.Accessor(),
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("registry", registry.Name()),
	)

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(app.NewContextProbe(registry)); err != nil {
		return fmt.Errorf("registering context probe: %w", err)
	}

	contextService := app.NewContextService(app.ContextServiceConfig{
		Store:  registry.Accessor(),
		Logger: logger,
	})

	healthHandler := handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime))
	contextHandler := handlers.NewContextHandler(contextService)

	server := http.New(&cfg.Server, logger, http.WithRegistry(registry))
	http.SetupRouter(server.Engine(),
		http.NewDefaultRouterConfig(registry, &cfg.App, &cfg.Server, healthHandler, contextHandler))

	serverErr := server.Start()

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a shutdown signal or a server error, then
// drains in-flight requests.
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
