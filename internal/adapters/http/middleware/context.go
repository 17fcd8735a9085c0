// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-async-context/internal/domain"
	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/platform/telemetry"
)

// AsyncContext returns middleware that runs the rest of the chain inside a
// new store of registry. The store is seeded with the request and
// correlation ids set by RequestID and CorrelationID, and with the trace id
// when a span is active, so it must be applied after those.
//
// Every goroutine started from the request context, including the timeout
// middleware's handler goroutine, sees the same store.
func AsyncContext(registry *asynccontext.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		initial := asynccontext.Values{
			domain.KeyRequestID:     GetRequestID(c),
			domain.KeyCorrelationID: GetCorrelationID(c),
		}

		if traceID := telemetry.TraceID(c.Request.Context()); traceID != "" {
			initial[domain.KeyTraceID] = traceID
		}

		_ = registry.Run(c.Request.Context(), initial, func(ctx context.Context) error {
			c.Request = c.Request.WithContext(ctx)
			c.Next()

			return nil
		})
	}
}
