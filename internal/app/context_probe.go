package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
	"github.com/jsamuelsen/go-async-context/internal/ports"
)

// ErrContextLost is returned by ContextProbe when a value written at the start
// of a scope is not visible after an asynchronous hop.
var ErrContextLost = errors.New("async context value lost across goroutine")

const probeKey = "probe"

// ContextProbe is a readiness check that round-trips a value through a fresh
// scope of the registry.
type ContextProbe struct {
	registry *asynccontext.Registry
}

var _ ports.HealthChecker = (*ContextProbe)(nil)

// NewContextProbe creates a probe for registry.
func NewContextProbe(registry *asynccontext.Registry) *ContextProbe {
	return &ContextProbe{registry: registry}
}

// Name implements ports.HealthChecker.
func (p *ContextProbe) Name() string {
	return "asynccontext"
}

// Check implements ports.HealthChecker.
func (p *ContextProbe) Check(ctx context.Context) error {
	want := uuid.NewString()
	store := p.registry.Accessor()

	return p.registry.Run(ctx, asynccontext.Values{probeKey: want}, func(ctx context.Context) error {
		got, err := asynccontext.Go(ctx, func(ctx context.Context) (any, error) {
			return store.Get(ctx, probeKey), nil
		}).Await(ctx)
		if err != nil {
			return fmt.Errorf("awaiting probe: %w", err)
		}

		if got != want {
			return fmt.Errorf("%w: registry %q", ErrContextLost, p.registry.Name())
		}

		return nil
	})
}
