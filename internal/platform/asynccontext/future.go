package asynccontext

import "context"

// Future is the result of work started with Go.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Go runs fn on a new goroutine with ctx, so fn observes the store that is
// active in ctx at the time of the call, however long it runs.
func Go[R any](ctx context.Context, fn func(ctx context.Context) (R, error)) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()

	return f
}

// Done is closed when the work has finished.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the work finishes or ctx is done.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
