package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-async-context/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-async-context/internal/adapters/http/middleware"
	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/platform/config"
	"github.com/jsamuelsen/go-async-context/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Registry creates the per-request async context store.
	Registry *asynccontext.Registry

	AppConfig      *config.AppConfig
	HealthHandler  *handlers.HealthHandler
	ContextHandler *handlers.ContextHandler

	// Timeout is the deadline of /api/v1 requests. Zero disables it.
	Timeout time.Duration

	// OnPanic is passed to the recovery middleware.
	OnPanic func(recovered any, stack []byte)
}

// healthPaths are not logged on every probe.
var healthPaths = []string{"/-/live", "/-/ready", "/-/metrics"}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. Request ID
//  3. Correlation ID
//  4. OpenTelemetry tracing, then HTTP metrics
//  5. Async context, seeded with the ids above
//  6. Logging
//  7. Timeout, /api/v1 only
//
// Everything after step 5 runs inside the request's store.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	if cfg.Registry == nil {
		panic("http: RouterConfig requires a Registry")
	}

	serviceName := "go-async-context"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(cfg.OnPanic),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(serviceName),
		telemetry.Middleware(serviceName),
		middleware.AsyncContext(cfg.Registry),
		middleware.Logging(healthPaths...),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.ContextHandler != nil {
		cfg.ContextHandler.RegisterContextRoutes(apiV1)
	}
}

// SetupMinimalRouter sets up a router with only the health endpoints. The
// requests still run inside a store so readiness checks behave as in
// production.
func SetupMinimalRouter(engine *gin.Engine, registry *asynccontext.Registry, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(nil),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.AsyncContext(registry),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig from the server
// configuration.
func NewDefaultRouterConfig(
	registry *asynccontext.Registry,
	appCfg *config.AppConfig,
	serverCfg *config.ServerConfig,
	healthHandler *handlers.HealthHandler,
	contextHandler *handlers.ContextHandler,
) RouterConfig {
	timeout := DefaultRequestTimeout
	if serverCfg != nil && serverCfg.RequestTimeout > 0 {
		timeout = serverCfg.RequestTimeout
	}

	return RouterConfig{
		Registry:       registry,
		AppConfig:      appCfg,
		HealthHandler:  healthHandler,
		ContextHandler: contextHandler,
		Timeout:        timeout,
	}
}
