package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-async-context/internal/domain"
	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/platform/logging"
	"github.com/jsamuelsen/go-async-context/internal/platform/telemetry"
)

// headerCorrelationID is read back from the response so errors carry the id
// the client was given.
const headerCorrelationID = "X-Correlation-ID"

// MapError maps an application error to a status and error envelope.
// Unknown errors become a generic 500.
func MapError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case errors.Is(err, ErrBinding):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeBadRequest, "malformed request")

	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, NewErrorResponseWithDetails(
			ErrorCodeValidation, "request validation failed", ValidationErrors(err))

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var ve *domain.ValidationError
		if errors.As(err, &ve) && ve.Field != "" {
			resp.Error.Details = map[string]string{ve.Field: ve.Message}
		}

		return http.StatusBadRequest, resp

	// A handler without a store means the middleware chain is misconfigured.
	case asynccontext.IsUninitializedRead(err), asynccontext.IsUninitializedWrite(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeNoContext, "request context is not initialized")

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// HandleError writes the envelope for err with the request's trace and
// correlation ids. Server errors are logged with the full error.
func HandleError(c *gin.Context, err error) {
	status, resp := MapError(err)
	respond(c, status, resp)

	if status >= http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed",
			slog.String("error", err.Error()),
			slog.String("code", resp.Error.Code),
		)
	}
}

// AbortWithErrorCode stops the chain with an envelope for code.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	respond(c, HTTPStatusFromCode(code), NewErrorResponse(code, message))
	c.Abort()
}

func respond(c *gin.Context, status int, resp *ErrorResponse) {
	resp.WithTraceID(telemetry.TraceID(c.Request.Context())).
		WithCorrelationID(c.Writer.Header().Get(headerCorrelationID))

	c.JSON(status, resp)
}
