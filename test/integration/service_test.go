//go:build integration

package integration

import (
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	httpadapter "github.com/jsamuelsen/go-async-context/internal/adapters/http"
	"github.com/jsamuelsen/go-async-context/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-async-context/internal/app"
	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/platform/config"
	"github.com/jsamuelsen/go-async-context/internal/platform/logging"
	"github.com/jsamuelsen/go-async-context/internal/ports"
)

// startService wires the service from cfg the way cmd/service does and
// serves it in-process.
func startService(tb testing.TB, cfg *config.Config) (*httptest.Server, *asynccontext.Registry) {
	tb.Helper()

	gin.SetMode(gin.TestMode)

	registry := asynccontext.NewRegistry(
		cfg.Context.Name,
		asynccontext.Values(cfg.Context.Defaults),
		logging.NewMissingReadHook(cfg.Context.MissingRead),
	)

	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  "json",
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		Store:   registry.Accessor(),
	}, io.Discard)

	health := ports.NewHealthRegistry()
	if err := health.Register(app.NewContextProbe(registry)); err != nil {
		tb.Fatalf("registering probe: %v", err)
	}

	svc := app.NewContextService(app.ContextServiceConfig{
		Store:  registry.Accessor(),
		Logger: logger,
	})

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.NewDefaultRouterConfig(
		registry,
		&cfg.App,
		&cfg.Server,
		handlers.NewHealthHandler(health, handlers.NewBuildInfo("test", "test", "test")),
		handlers.NewContextHandler(svc),
	))

	server := httptest.NewServer(engine)
	tb.Cleanup(server.Close)

	return server, registry
}

// loadConfig loads the test profile from defaults and the environment.
func loadConfig(tb testing.TB) *config.Config {
	tb.Helper()

	cfg, err := config.Load("test")
	if err != nil {
		tb.Fatalf("loading config: %v", err)
	}

	cfg.App.Environment = "test"

	if err := cfg.Validate(); err != nil {
		tb.Fatalf("validating config: %v", err)
	}

	return cfg
}

// baseURL returns BASE_URL when set, so the suite can run against a
// deployed service, and an in-process server otherwise.
func baseURL(tb testing.TB) string {
	tb.Helper()

	if url := os.Getenv("BASE_URL"); url != "" {
		return url
	}

	server, _ := startService(tb, loadConfig(tb))

	return server.URL
}
