package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
)

// ContextMetrics records async context registry activity. It implements
// asynccontext.Observer.
type ContextMetrics struct {
	scopesStarted       metric.Int64Counter
	activeScopes        metric.Int64UpDownCounter
	uninitializedReads  metric.Int64Counter
	uninitializedWrites metric.Int64Counter

	// missingReads is also exported on /-/metrics so reads outside a scope
	// can be alerted on without an OTLP collector.
	missingReads *prometheus.CounterVec
}

var _ asynccontext.Observer = (*ContextMetrics)(nil)

// NewContextMetrics creates the registry instruments on the global meter
// provider and registers the prometheus collector with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewContextMetrics(reg prometheus.Registerer) (*ContextMetrics, error) {
	return newContextMetrics(otel.Meter(instrumentationName), reg)
}

func newContextMetrics(meter metric.Meter, reg prometheus.Registerer) (*ContextMetrics, error) {
	scopesStarted, err := meter.Int64Counter(
		"asynccontext.scope.started",
		metric.WithDescription("Number of async context scopes entered"),
	)
	if err != nil {
		return nil, err
	}

	activeScopes, err := meter.Int64UpDownCounter(
		"asynccontext.scope.active",
		metric.WithDescription("Number of async context scopes currently running"),
	)
	if err != nil {
		return nil, err
	}

	uninitializedReads, err := meter.Int64Counter(
		"asynccontext.read.uninitialized",
		metric.WithDescription("Reads made while no store was bound"),
	)
	if err != nil {
		return nil, err
	}

	uninitializedWrites, err := meter.Int64Counter(
		"asynccontext.write.uninitialized",
		metric.WithDescription("Writes rejected because no store was bound"),
	)
	if err != nil {
		return nil, err
	}

	missingReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asynccontext",
		Name:      "missing_reads_total",
		Help:      "Reads made outside any async context scope.",
	}, []string{"registry", "key"})

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	if err := reg.Register(missingReads); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}

		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}

		missingReads = existing
	}

	return &ContextMetrics{
		scopesStarted:       scopesStarted,
		activeScopes:        activeScopes,
		uninitializedReads:  uninitializedReads,
		uninitializedWrites: uninitializedWrites,
		missingReads:        missingReads,
	}, nil
}

// ScopeStarted implements asynccontext.Observer.
func (m *ContextMetrics) ScopeStarted(ctx context.Context, registry string) {
	attrs := metric.WithAttributes(attribute.String("registry", registry))
	m.scopesStarted.Add(ctx, 1, attrs)
	m.activeScopes.Add(ctx, 1, attrs)
}

// ScopeFinished implements asynccontext.Observer.
func (m *ContextMetrics) ScopeFinished(ctx context.Context, registry string) {
	m.activeScopes.Add(ctx, -1, metric.WithAttributes(attribute.String("registry", registry)))
}

// UninitializedRead implements asynccontext.Observer.
func (m *ContextMetrics) UninitializedRead(ctx context.Context, registry, key string) {
	m.uninitializedReads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("registry", registry),
		attribute.String("key", key),
	))
	m.missingReads.WithLabelValues(registry, key).Inc()
}

// UninitializedWrite implements asynccontext.Observer.
func (m *ContextMetrics) UninitializedWrite(ctx context.Context, registry, key string) {
	m.uninitializedWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("registry", registry),
		attribute.String("key", key),
	))
}
