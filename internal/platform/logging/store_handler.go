package logging

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
)

// StoreGroup is the attribute group holding async-context values.
const StoreGroup = "ctx"

// StoreHandler is an slog.Handler that appends the values of the active
// async-context store to each record under StoreGroup. Records logged outside
// any scope pass through unchanged and never trigger the registry's hook.
type StoreHandler struct {
	next  slog.Handler
	store *asynccontext.Accessor
}

// NewStoreHandler wraps next.
func NewStoreHandler(next slog.Handler, store *asynccontext.Accessor) *StoreHandler {
	return &StoreHandler{next: next, store: store}
}

// Enabled delegates to the wrapped handler.
func (h *StoreHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds the store values and forwards the record.
func (h *StoreHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	if !h.store.Active(ctx) {
		return h.next.Handle(ctx, r)
	}

	values := h.store.Snapshot(ctx)
	attrs := make([]any, 0, len(values))

	for _, k := range slices.Sorted(maps.Keys(values)) {
		attrs = append(attrs, slog.Any(k, values[k]))
	}

	r = r.Clone()
	r.AddAttrs(slog.Group(StoreGroup, attrs...))

	return h.next.Handle(ctx, r)
}

// WithAttrs returns a new StoreHandler around next.WithAttrs.
func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewStoreHandler(h.next.WithAttrs(attrs), h.store)
}

// WithGroup returns a new StoreHandler around next.WithGroup.
func (h *StoreHandler) WithGroup(name string) slog.Handler {
	return NewStoreHandler(h.next.WithGroup(name), h.store)
}
