package logging

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
)

// NewMissingReadHook returns an ErrorHook that logs reads made outside any
// async-context scope at the given level through the context logger.
// The policy "ignore" returns a hook that does nothing.
func NewMissingReadHook(policy string) asynccontext.ErrorHook {
	if strings.EqualFold(policy, "ignore") {
		return func(context.Context, error) {}
	}

	level := parseLevel(policy)

	return func(ctx context.Context, err error) {
		attrs := []slog.Attr{slog.String("error", err.Error())}

		var readErr *asynccontext.UninitializedReadError
		if errors.As(err, &readErr) {
			attrs = append(attrs,
				slog.String("registry", readErr.Registry),
				slog.String("key", readErr.Key),
			)
		}

		FromContext(ctx).LogAttrs(ctx, level, "async context read outside of scope", attrs...)
	}
}
