package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxIDLength caps ids accepted from clients; longer ones are replaced.
const maxIDLength = 128

// idMiddleware takes an id from header, or generates a UUID v4 when it is
// missing or oversized, and exposes it on the gin context and the response
// headers. Logs pick it up from the async context store.
func idMiddleware(header, ginKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" || len(id) > maxIDLength {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Header(header, id)

		c.Next()
	}
}
