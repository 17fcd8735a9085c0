package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin.Context key of the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestID returns middleware that extracts or generates a request ID.
// AsyncContext copies it into the request's store.
func RequestID() gin.HandlerFunc {
	return idMiddleware(HeaderRequestID, ContextKeyRequestID)
}

// GetRequestID returns the request ID, or "" if RequestID was not applied.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
