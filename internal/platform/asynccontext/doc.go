// Package asynccontext provides ambient, per-request values that follow a call
// chain without being passed through every function signature.
//
// A Registry owns one kind of store. RunWithinScope creates a store, binds it to
// a child context and runs a callback with that context. Any code reached
// through the context, including goroutines started from it, reads and writes
// the same store through the registry's Accessor:
//
//	ctxStore, runWithAsyncContext := asynccontext.New("request",
//	    asynccontext.Values{"correlationId": ""},
//	    func(ctx context.Context, err error) { logger.WarnContext(ctx, err.Error()) },
//	)
//
//	_ = runWithAsyncContext(ctx, asynccontext.Values{"correlationId": id}, func(ctx context.Context) error {
//	    f := asynccontext.Go(ctx, func(ctx context.Context) (any, error) {
//	        return ctxStore.Get(ctx, "correlationId"), nil // id
//	    })
//	    _, err := f.Await(ctx)
//	    return err
//	})
//
// # Nesting
//
// A nested RunWithinScope binds its own store for the extent of its callback
// only. The caller's context still carries the outer store.
//
// # Missing stores
//
// Reads with no store bound never fail: the registry's ErrorHook is told and
// the default value is returned. Writes with no store bound return an
// *UninitializedWriteError, since the value would otherwise be lost.
package asynccontext
