package asynccontext

import "context"

// Accessor reads and writes whichever store is bound to the calling context.
type Accessor struct {
	registry *Registry
}

// Registry returns the registry the accessor targets.
func (a *Accessor) Registry() *Registry {
	return a.registry
}

// Get returns the value of key in the active store.
// With no store bound, the error hook is called and the default is returned.
func (a *Accessor) Get(ctx context.Context, key string) any {
	return a.registry.read(ctx, key)
}

// Set writes key into the active store. It fails with an
// *UninitializedWriteError when no store is bound.
func (a *Accessor) Set(ctx context.Context, key string, value any) error {
	return a.registry.write(ctx, a.registry.storeFrom(ctx), key, value)
}

// MustSet is like Set but panics on error.
func (a *Accessor) MustSet(ctx context.Context, key string, value any) {
	if err := a.Set(ctx, key, value); err != nil {
		panic(err)
	}
}

// Active reports whether a store is bound to ctx. It never calls the error hook.
func (a *Accessor) Active(ctx context.Context) bool {
	return a.registry.storeFrom(ctx) != nil
}

// Snapshot returns the defaults overlaid with the active store's values.
// With no store bound it returns a copy of the defaults without calling the hook.
func (a *Accessor) Snapshot(ctx context.Context) Values {
	out := a.registry.Defaults()

	if s := a.registry.storeFrom(ctx); s != nil {
		for k, v := range s.snapshot() {
			out[k] = v
		}
	}

	return out
}

// GetOrFetch memoizes fetchFn under key for the lifetime of the active store.
// Concurrent callers may both run fetchFn; the first stored result wins.
// With no store bound, fetchFn runs on every call.
//
//	user, err := ctxStore.GetOrFetch(ctx, "user:"+id, func(ctx context.Context) (any, error) {
//	    return users.Get(ctx, id)
//	})
func (a *Accessor) GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	s := a.registry.storeFrom(ctx)
	if s == nil {
		return fetchFn(ctx)
	}

	return s.fetch(ctx, key, fetchFn)
}
