package dto

// MaxValuesPerRequest bounds the number of keys written by one request.
const MaxValuesPerRequest = 32

// KeyURI is the :key path parameter of the context routes.
type KeyURI struct {
	Key string `uri:"key" validate:"required,max=64"`
}

// SetValueRequest is the body of PUT /api/v1/context/:key.
type SetValueRequest struct {
	Value any `json:"value"`
}

// SetValuesRequest is the body of PATCH /api/v1/context.
type SetValuesRequest struct {
	Values map[string]any `json:"values" validate:"required,min=1,max=32,dive,keys,contextkey,endkeys"`
}

// NestedScopeRequest is the body of POST /api/v1/context/scopes.
type NestedScopeRequest struct {
	Values map[string]any `json:"values" validate:"max=32,dive,keys,contextkey,endkeys"`
}

// HopResponse is what one asynchronous branch observed.
type HopResponse struct {
	Depth         int    `json:"depth"`
	CorrelationID string `json:"correlationId"`
	RequestID     string `json:"requestId"`
}

// ContextResponse is the body of GET /api/v1/context.
type ContextResponse struct {
	Registry      string         `json:"registry"`
	RequestID     string         `json:"requestId"`
	CorrelationID string         `json:"correlationId"`
	TraceID       string         `json:"traceId,omitempty"`
	Hops          []HopResponse  `json:"hops"`
	Values        map[string]any `json:"values"`
}

// ValueResponse is the body of GET /api/v1/context/:key.
type ValueResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ValuesResponse carries the store as seen after a write.
type ValuesResponse struct {
	Values map[string]any `json:"values"`
}

// NestedScopeResponse compares a nested scope with its parent.
type NestedScopeResponse struct {
	Inner map[string]any `json:"inner"`
	Outer map[string]any `json:"outer"`
}
