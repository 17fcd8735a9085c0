package asynccontext

import (
	"context"
	"log/slog"
)

// ErrorHook is called when a key is read while no store is bound.
// err is always an *UninitializedReadError.
type ErrorHook func(ctx context.Context, err error)

// Observer receives registry lifecycle events, typically for metrics.
type Observer interface {
	ScopeStarted(ctx context.Context, registry string)
	ScopeFinished(ctx context.Context, registry string)
	UninitializedRead(ctx context.Context, registry, key string)
	UninitializedWrite(ctx context.Context, registry, key string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver attaches an Observer to the registry.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// registryKey is the context key of one registry. Keys compare by pointer, so
// registries never see each other's stores even when they share a name.
type registryKey struct {
	name string
}

// Registry owns the stores of one named async context.
type Registry struct {
	name     string
	defaults Values
	onError  ErrorHook
	observer Observer
	key      *registryKey
}

// Runner runs fn inside a fresh store seeded with initial.
type Runner func(ctx context.Context, initial Values, fn func(ctx context.Context) error) error

// New creates an independent registry and returns its accessor together with
// the function that runs code inside a new store.
//
//	ctxStore, runWithAsyncContext := asynccontext.New("request", asynccontext.Values{"correlationId": ""}, nil)
//
//	err := runWithAsyncContext(ctx, asynccontext.Values{"correlationId": id}, func(ctx context.Context) error {
//	    return handle(ctx)
//	})
func New(name string, defaults Values, onError ErrorHook, opts ...Option) (*Accessor, Runner) {
	r := NewRegistry(name, defaults, onError, opts...)
	return r.Accessor(), r.Run
}

// NewRegistry creates a registry. defaults is copied and never mutated.
// A nil onError logs uninitialized reads at warn level with slog's default logger.
func NewRegistry(name string, defaults Values, onError ErrorHook, opts ...Option) *Registry {
	if onError == nil {
		onError = defaultErrorHook
	}

	r := &Registry{
		name:     name,
		defaults: defaults.Clone(),
		onError:  onError,
		key:      &registryKey{name: name},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func defaultErrorHook(ctx context.Context, err error) {
	slog.Default().WarnContext(ctx, "async context read outside of scope", slog.Any("error", err))
}

// Name returns the diagnostic name of the registry.
func (r *Registry) Name() string {
	return r.name
}

// Defaults returns a copy of the default values.
func (r *Registry) Defaults() Values {
	return r.defaults.Clone()
}

// Accessor returns the read/write facade for this registry.
func (r *Registry) Accessor() *Accessor {
	return &Accessor{registry: r}
}

// CreateScope allocates an empty store and writes initial into it through the
// regular write path.
func (r *Registry) CreateScope(initial Values) *Scope {
	s := &Scope{registry: r, store: newStore()}

	for k, v := range initial {
		// cannot fail, the store is not nil
		_ = r.write(context.Background(), s.store, k, v)
	}

	return s
}

// Run implements Runner.
func (r *Registry) Run(ctx context.Context, initial Values, fn func(ctx context.Context) error) error {
	return RunWithinScope(ctx, r, initial, fn)
}

func (r *Registry) storeFrom(ctx context.Context) *store {
	if ctx == nil {
		return nil
	}

	if s, ok := ctx.Value(r.key).(*store); ok {
		return s
	}

	return nil
}

func (r *Registry) write(ctx context.Context, s *store, key string, value any) error {
	if s == nil {
		if r.observer != nil {
			r.observer.UninitializedWrite(ctx, r.name, key)
		}

		return &UninitializedWriteError{Registry: r.name, Key: key, Value: value}
	}

	s.save(key, value)

	return nil
}

func (r *Registry) read(ctx context.Context, key string) any {
	s := r.storeFrom(ctx)
	if s == nil {
		if r.observer != nil {
			r.observer.UninitializedRead(ctx, r.name, key)
		}

		r.onError(ctx, &UninitializedReadError{Registry: r.name, Key: key})

		return r.defaults[key]
	}

	if v, ok := s.load(key); ok {
		return v
	}

	// Only reachable for keys outside the declared shape.
	return r.defaults[key]
}

// Scope is a store that has been created but not necessarily bound yet.
type Scope struct {
	registry *Registry
	store    *store
}

// Bind returns a child of ctx in which s is the active store.
func (s *Scope) Bind(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, s.registry.key, s.store)
}

// Run invokes fn with s bound.
func (s *Scope) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return RunScope(ctx, s, fn)
}

// RunScope invokes fn with s bound and returns its result. Everything reached
// through the context passed to fn, including goroutines and futures started
// from it, observes s. The caller's ctx is untouched, so the enclosing store
// is active again once fn returns.
func RunScope[R any](ctx context.Context, s *Scope, fn func(ctx context.Context) R) R {
	ctx = s.Bind(ctx)

	if o := s.registry.observer; o != nil {
		o.ScopeStarted(ctx, s.registry.name)
		defer o.ScopeFinished(ctx, s.registry.name)
	}

	return fn(ctx)
}

// RunWithinScope creates a store seeded with initial and runs fn inside it.
func RunWithinScope[R any](ctx context.Context, r *Registry, initial Values, fn func(ctx context.Context) R) R {
	return RunScope(ctx, r.CreateScope(initial), fn)
}

// RunWithinScopeE is RunWithinScope for callbacks that also return an error.
//
//	user, err := asynccontext.RunWithinScopeE(ctx, registry, initial, func(ctx context.Context) (*User, error) {
//	    return users.Load(ctx)
//	})
func RunWithinScopeE[R any](ctx context.Context, r *Registry, initial Values, fn func(ctx context.Context) (R, error)) (R, error) {
	type result struct {
		value R
		err   error
	}

	res := RunWithinScope(ctx, r, initial, func(ctx context.Context) result {
		v, err := fn(ctx)
		return result{value: v, err: err}
	})

	return res.value, res.err
}
