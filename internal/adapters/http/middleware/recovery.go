package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-async-context/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-async-context/internal/platform/logging"
	"github.com/jsamuelsen/go-async-context/internal/platform/telemetry"
)

// Recovery returns middleware that turns a panic into a 500 response with
// the standard error envelope and logs it with its stack. It must be first
// in the chain. Because AsyncContext replaces the request context in place,
// the panic log still carries the request's store.
//
// onPanic, when non-nil, is called with the recovered value and stack.
func Recovery(onPanic func(recovered any, stack []byte)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			if onPanic != nil {
				onPanic(r, stack)
			}

			ctx := c.Request.Context()
			traceID := telemetry.TraceID(ctx)

			logging.FromContext(ctx).ErrorContext(ctx, "panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(stack)),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
			)

			abortWith(c, http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
		}()

		c.Next()
	}
}

// abortWith writes resp unless the handler already started the response.
func abortWith(c *gin.Context, status int, resp *dto.ErrorResponse) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(status, resp)
}
