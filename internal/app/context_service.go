// Package app contains application services that orchestrate use cases.
// Services here read and write the request's async context through an
// asynccontext.Accessor; they never receive request ids as arguments.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jsamuelsen/go-async-context/internal/domain"
	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
)

const (
	// DefaultHops is the number of concurrent hops Describe makes.
	DefaultHops = 3

	// DefaultWorkers bounds the writers used by UpdateAll.
	DefaultWorkers = 4

	// NestedScopeKey is written inside every scope started by Nested.
	NestedScopeKey   = "scope"
	NestedScopeValue = "nested"

	contextEntity = "context key"
	contextDep    = "async context"
)

// ContextService exposes the request's async context to the transport.
type ContextService struct {
	store         *asynccontext.Accessor
	correlationID asynccontext.Field[string]
	requestID     asynccontext.Field[string]
	traceID       asynccontext.Field[string]
	logger        *slog.Logger
	hops          int
	workers       int
}

// ContextServiceConfig contains the dependencies of ContextService.
type ContextServiceConfig struct {
	Store   *asynccontext.Accessor
	Logger  *slog.Logger
	Hops    int
	Workers int
}

// NewContextService creates a ContextService. It panics without a Store.
func NewContextService(cfg ContextServiceConfig) *ContextService {
	if cfg.Store == nil {
		panic("app: ContextService requires a Store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hops := cfg.Hops
	if hops < 1 {
		hops = DefaultHops
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	return &ContextService{
		store:         cfg.Store,
		correlationID: asynccontext.NewField[string](cfg.Store, domain.KeyCorrelationID),
		requestID:     asynccontext.NewField[string](cfg.Store, domain.KeyRequestID),
		traceID:       asynccontext.NewField[string](cfg.Store, domain.KeyTraceID),
		logger:        logger,
		hops:          hops,
		workers:       workers,
	}
}

// HopReport is what one asynchronous branch observed.
type HopReport struct {
	Depth         int    `json:"depth"`
	CorrelationID string `json:"correlationId"`
	RequestID     string `json:"requestId"`
}

// ContextReport describes the caller's async context.
type ContextReport struct {
	Registry      string              `json:"registry"`
	RequestID     string              `json:"requestId"`
	CorrelationID string              `json:"correlationId"`
	TraceID       string              `json:"traceId,omitempty"`
	Hops          []HopReport         `json:"hops"`
	Values        asynccontext.Values `json:"values"`
}

// Describe reports the ids of the current request. Each hop runs on its own
// goroutine behind a chain of futures of increasing depth, so the report
// shows whether the ids survived every asynchronous boundary.
func (s *ContextService) Describe(ctx context.Context) (*ContextReport, error) {
	if err := s.requireScope(ctx); err != nil {
		return nil, err
	}

	branches := make([]func(context.Context) (HopReport, error), s.hops)
	for i := range branches {
		branches[i] = func(ctx context.Context) (HopReport, error) {
			return s.hop(ctx, i+1)
		}
	}

	hops, err := Parallel(ctx, branches...)
	if err != nil {
		return nil, fmt.Errorf("describing context: %w", err)
	}

	report := &ContextReport{
		Registry:      s.store.Registry().Name(),
		RequestID:     s.requestID.Get(ctx),
		CorrelationID: s.correlationID.Get(ctx),
		TraceID:       s.traceID.Get(ctx),
		Hops:          hops,
		Values:        s.store.Snapshot(ctx),
	}

	s.logger.DebugContext(ctx, "described async context", slog.Int("hops", len(hops)))

	return report, nil
}

// hop reads the ids after depth nested futures.
func (s *ContextService) hop(ctx context.Context, depth int) (HopReport, error) {
	return asynccontext.Go(ctx, func(ctx context.Context) (HopReport, error) {
		if depth > 1 {
			inner, err := s.hop(ctx, depth-1)
			if err != nil {
				return HopReport{}, err
			}

			inner.Depth = depth

			return inner, nil
		}

		return HopReport{
			Depth:         depth,
			CorrelationID: s.correlationID.Get(ctx),
			RequestID:     s.requestID.Get(ctx),
		}, nil
	}).Await(ctx)
}

// Get returns the value stored under key. Keys that were never written but
// have a registry default are found.
func (s *ContextService) Get(ctx context.Context, key string) (any, error) {
	if err := s.requireScope(ctx); err != nil {
		return nil, err
	}

	value, ok := s.store.Snapshot(ctx)[key]
	if !ok {
		return nil, domain.NewNotFoundError(contextEntity, key)
	}

	return value, nil
}

// Update writes one value into the current store and returns the store as
// seen by an asynchronous continuation of the caller.
func (s *ContextService) Update(ctx context.Context, key string, value any) (asynccontext.Values, error) {
	if err := domain.ValidateKey(key); err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, key, value); err != nil {
		return nil, s.storeError(err)
	}

	s.logger.InfoContext(ctx, "context value updated", slog.String("key", key))

	return s.snapshotAsync(ctx)
}

// UpdateAll validates every key, then writes the values concurrently.
// Nothing is written when any key is rejected.
func (s *ContextService) UpdateAll(ctx context.Context, values map[string]any) (asynccontext.Values, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		if err := domain.ValidateKey(key); err != nil {
			return nil, err
		}
	}

	if err := s.requireScope(ctx); err != nil {
		return nil, err
	}

	err := FanOut(ctx, s.workers, keys, func(ctx context.Context, key string) error {
		return s.store.Set(ctx, key, values[key])
	})
	if err != nil {
		return nil, s.storeError(err)
	}

	s.logger.InfoContext(ctx, "context values updated", slog.Int("count", len(keys)))

	return s.snapshotAsync(ctx)
}

// NestedReport compares a nested scope with the scope that started it.
type NestedReport struct {
	Inner asynccontext.Values `json:"inner"`
	Outer asynccontext.Values `json:"outer"`
}

// Nested runs a child scope seeded with the caller's transport ids and
// values, writes into it from a goroutine, and reports both stores after
// the child finishes. Nothing written in the child reaches the caller.
func (s *ContextService) Nested(ctx context.Context, values map[string]any) (*NestedReport, error) {
	if err := s.requireScope(ctx); err != nil {
		return nil, err
	}

	initial := asynccontext.Values{}

	for key, value := range values {
		if err := domain.ValidateKey(key); err != nil {
			return nil, err
		}

		initial[key] = value
	}

	for _, key := range domain.ReservedKeys() {
		initial[key] = s.store.Get(ctx, key)
	}

	var inner asynccontext.Values

	err := s.store.Registry().Run(ctx, initial, func(ctx context.Context) error {
		_, err := asynccontext.Go(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.store.Set(ctx, NestedScopeKey, NestedScopeValue)
		}).Await(ctx)
		if err != nil {
			return err
		}

		inner = s.store.Snapshot(ctx)

		return nil
	})
	if err != nil {
		return nil, s.storeError(err)
	}

	return &NestedReport{Inner: inner, Outer: s.store.Snapshot(ctx)}, nil
}

func (s *ContextService) snapshotAsync(ctx context.Context) (asynccontext.Values, error) {
	return asynccontext.Go(ctx, func(ctx context.Context) (asynccontext.Values, error) {
		return s.store.Snapshot(ctx), nil
	}).Await(ctx)
}

func (s *ContextService) requireScope(ctx context.Context) error {
	if s.store.Active(ctx) {
		return nil
	}

	return domain.NewUnavailableError(contextDep, asynccontext.ErrUninitializedRead)
}

func (s *ContextService) storeError(err error) error {
	if asynccontext.IsUninitializedWrite(err) || asynccontext.IsUninitializedRead(err) {
		return domain.NewUnavailableError(contextDep, err)
	}

	return err
}
