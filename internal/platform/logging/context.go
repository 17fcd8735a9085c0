package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// RegistryKey is the attribute naming the async context registry a logger
// serves.
const RegistryKey = "registry"

type ctxKey struct{}

var fallback atomic.Pointer[slog.Logger]

// FromContext returns the logger carried by ctx, or the process default.
// A nil ctx is allowed.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	if logger := fallback.Load(); logger != nil {
		return logger
	}

	return slog.Default()
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// ForRegistry returns a context whose logger is tagged with the registry name,
// so lines written before a store is bound still say which registry they
// belong to.
func ForRegistry(ctx context.Context, registry string) context.Context {
	if registry == "" {
		return ctx
	}

	return WithContext(ctx, FromContext(ctx).With(slog.String(RegistryKey, registry)))
}

// SetDefault sets the logger used when ctx carries none.
func SetDefault(logger *slog.Logger) {
	fallback.Store(logger)
	slog.SetDefault(logger)
}
