package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-async-context/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-async-context/internal/app"
)

// ContextHandler exposes the request's async context over HTTP.
type ContextHandler struct {
	service *app.ContextService
}

// NewContextHandler creates a new context handler.
func NewContextHandler(service *app.ContextService) *ContextHandler {
	return &ContextHandler{
		service: service,
	}
}

func toContextResponse(r *app.ContextReport) *dto.ContextResponse {
	hops := make([]dto.HopResponse, len(r.Hops))
	for i, hop := range r.Hops {
		hops[i] = dto.HopResponse{
			Depth:         hop.Depth,
			CorrelationID: hop.CorrelationID,
			RequestID:     hop.RequestID,
		}
	}

	return &dto.ContextResponse{
		Registry:      r.Registry,
		RequestID:     r.RequestID,
		CorrelationID: r.CorrelationID,
		TraceID:       r.TraceID,
		Hops:          hops,
		Values:        r.Values,
	}
}

// Describe handles GET /api/v1/context
// Returns the request's ids as seen from several goroutines.
//
// @Summary Describe the request context
// @Tags context
// @Produce json
// @Success 200 {object} dto.ContextResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/context [get]
func (h *ContextHandler) Describe(c *gin.Context) {
	report, err := h.service.Describe(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContextResponse(report))
}

// GetValue handles GET /api/v1/context/:key
//
// @Summary Get one context value
// @Tags context
// @Produce json
// @Param key path string true "Context key"
// @Success 200 {object} dto.ValueResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/context/{key} [get]
func (h *ContextHandler) GetValue(c *gin.Context) {
	var uri dto.KeyURI
	if err := dto.BindURIAndValidate(c, &uri); err != nil {
		dto.HandleError(c, err)
		return
	}

	value, err := h.service.Get(c.Request.Context(), uri.Key)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValueResponse{Key: uri.Key, Value: value})
}

// SetValue handles PUT /api/v1/context/:key
// Writes one value into the request's store. Reserved keys are rejected.
//
// @Summary Set one context value
// @Tags context
// @Accept json
// @Produce json
// @Param key path string true "Context key"
// @Param body body dto.SetValueRequest true "Value"
// @Success 200 {object} dto.ValuesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/context/{key} [put]
func (h *ContextHandler) SetValue(c *gin.Context) {
	var uri dto.KeyURI
	if err := dto.BindURIAndValidate(c, &uri); err != nil {
		dto.HandleError(c, err)
		return
	}

	var req dto.SetValueRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	values, err := h.service.Update(c.Request.Context(), uri.Key, req.Value)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValuesResponse{Values: values})
}

// SetValues handles PATCH /api/v1/context
//
// @Summary Set several context values
// @Tags context
// @Accept json
// @Produce json
// @Param body body dto.SetValuesRequest true "Values"
// @Success 200 {object} dto.ValuesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/context [patch]
func (h *ContextHandler) SetValues(c *gin.Context) {
	var req dto.SetValuesRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	values, err := h.service.UpdateAll(c.Request.Context(), req.Values)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValuesResponse{Values: values})
}

// NestedScope handles POST /api/v1/context/scopes
// Runs a child scope and returns both stores once it has finished.
//
// @Summary Run a nested scope
// @Tags context
// @Accept json
// @Produce json
// @Param body body dto.NestedScopeRequest true "Initial values"
// @Success 200 {object} dto.NestedScopeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/context/scopes [post]
func (h *ContextHandler) NestedScope(c *gin.Context) {
	var req dto.NestedScopeRequest
	if c.Request.ContentLength != 0 {
		if err := dto.BindAndValidate(c, &req); err != nil {
			dto.HandleError(c, err)
			return
		}
	}

	report, err := h.service.Nested(c.Request.Context(), req.Values)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NestedScopeResponse{Inner: report.Inner, Outer: report.Outer})
}

// RegisterContextRoutes registers the context routes on rg:
//   - GET /context
//   - PATCH /context
//   - POST /context/scopes
//   - GET /context/:key
//   - PUT /context/:key
func (h *ContextHandler) RegisterContextRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/context")
	group.GET("", h.Describe)
	group.PATCH("", h.SetValues)
	group.POST("/scopes", h.NestedScope)
	group.GET("/:key", h.GetValue)
	group.PUT("/:key", h.SetValue)
}
