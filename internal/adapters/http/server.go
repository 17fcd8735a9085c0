// Package http provides the HTTP adapter layer using Gin.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/platform/config"
	"github.com/jsamuelsen/go-async-context/internal/platform/logging"
)

// Server serves the async context API. Each request runs in its own store,
// so the number of in-flight requests is the number of live request scopes.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	config     *config.ServerConfig
	logger     *slog.Logger
	baseCtx    context.Context
	registry   string
	inFlight   atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry names the registry whose scopes the server hosts. The name
// tags the server's log lines and every request's base logger.
func WithRegistry(registry *asynccontext.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry.Name()
		}
	}
}

// New creates a server for cfg. Routes are registered on Engine afterwards.
func New(cfg *config.ServerConfig, logger *slog.Logger, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		config: cfg,
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.baseCtx = logging.ForRegistry(logging.WithContext(context.Background(), logger), s.registry)
	s.logger = logging.FromContext(s.baseCtx)

	s.engine.Use(s.trackInFlight(), maxBodySize(cfg.MaxRequestSize))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext:  s.baseContext,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	return s
}

// baseContext carries the server logger into every request, so middleware
// that runs before a store is bound still logs with the registry name.
func (s *Server) baseContext(net.Listener) context.Context {
	return s.baseCtx
}

// InFlight returns the number of requests currently being served.
func (s *Server) InFlight() int64 {
	return s.inFlight.Load()
}

func (s *Server) trackInFlight() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.inFlight.Add(1)
		defer s.inFlight.Add(-1)

		c.Next()
	}
}

// Engine returns the underlying Gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Config returns the server configuration.
func (s *Server) Config() *config.ServerConfig {
	return s.config
}

// Start serves on a new goroutine. The returned channel receives any
// ListenAndServe error and is closed when the server stops.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", s.httpServer.Addr),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
			slog.Duration("request_timeout", s.config.RequestTimeout),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}

		close(errCh)
	}()

	return errCh
}

// Shutdown waits for active requests, and so for their stores, to finish
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server", slog.Int64("in_flight_scopes", s.InFlight()))

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped")

	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// maxBodySize returns middleware that limits the request body size.
func maxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
