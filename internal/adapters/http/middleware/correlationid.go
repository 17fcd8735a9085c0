package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// HeaderCorrelationID is the header name for correlation ID. Unlike the
	// request ID it is propagated from upstream and spans a whole transaction.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyCorrelationID is the gin.Context key of the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID returns middleware that propagates or starts a correlation ID.
// AsyncContext copies it into the request's store.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(HeaderCorrelationID, ContextKeyCorrelationID)
}

// GetCorrelationID returns the correlation ID, or "" if CorrelationID was not applied.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
