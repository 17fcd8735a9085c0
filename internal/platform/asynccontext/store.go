package asynccontext

import (
	"context"
	"maps"
	"sync"
)

// Values is a key/value mapping used for initial values, defaults and snapshots.
type Values map[string]any

// Clone returns a shallow copy of v. A nil Values clones to an empty map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)

	return out
}

// store holds the values of one execution branch.
// Goroutines spawned inside a branch share it, so access is locked.
type store struct {
	mu     sync.RWMutex
	values Values
	memo   sync.Map // GetOrFetch results
}

func newStore() *store {
	return &store{values: make(Values)}
}

func (s *store) load(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

func (s *store) save(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

func (s *store) snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values.Clone()
}

// fetch returns the memoized result for key, calling fetchFn once per store.
// Errors are not cached so a later call may retry.
func (s *store) fetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	if cached, ok := s.memo.Load(key); ok {
		return cached, nil
	}

	value, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}

	actual, _ := s.memo.LoadOrStore(key, value)
	return actual, nil
}
