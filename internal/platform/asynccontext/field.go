package asynccontext

import "context"

// Field is a typed accessor for a single key.
//
//	var correlationID = asynccontext.NewField[string](ctxStore, "correlationId")
//
//	id := correlationID.Get(ctx)
type Field[T any] struct {
	accessor *Accessor
	key      string
}

// NewField binds key to a.
func NewField[T any](a *Accessor, key string) Field[T] {
	return Field[T]{accessor: a, key: key}
}

// Key returns the field's key.
func (f Field[T]) Key() string {
	return f.key
}

// Get returns the field value. A stored value of another type yields the zero T.
func (f Field[T]) Get(ctx context.Context) T {
	v, _ := f.accessor.Get(ctx, f.key).(T)
	return v
}

// Set writes the field value.
func (f Field[T]) Set(ctx context.Context, value T) error {
	return f.accessor.Set(ctx, f.key, value)
}
