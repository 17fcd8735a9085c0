package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// The helpers below pass the errgroup context to every function. That
// context is derived from the caller's, so each goroutine keeps the caller's
// async context store and sees writes made by its siblings.

// Parallel runs fns concurrently and returns their results in order.
// The first error cancels the remaining functions.
//
// Example:
//
//	ids, err := Parallel(ctx, readCorrelationID, readRequestID)
func Parallel[T any](ctx context.Context, fns ...func(context.Context) (T, error)) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]T, len(fns))

	for i, fn := range fns {
		g.Go(func() error {
			result, err := fn(ctx)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel execution failed: %w", err)
	}

	return results, nil
}

// Parallel2 runs two functions of different result types concurrently.
func Parallel2[T1, T2 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (T1, T2, error) {
	var (
		result1 T1
		result2 T2
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		result1, err = fn1(ctx)
		return err
	})

	g.Go(func() (err error) {
		result2, err = fn2(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			zero1 T1
			zero2 T2
		)

		return zero1, zero2, fmt.Errorf("parallel execution failed: %w", err)
	}

	return result1, result2, nil
}

// FanOut hands items to a fixed number of workers. Workers run in parallel
// and stop at the first error.
//
// Example:
//
//	err := FanOut(ctx, 4, keys, func(ctx context.Context, key string) error {
//	    return store.Set(ctx, key, values[key])
//	})
func FanOut[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) error {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	itemChan := make(chan T)

	for range workers {
		g.Go(func() error {
			for item := range itemChan {
				if err := fn(ctx, item); err != nil {
					return err
				}
			}

			return nil
		})
	}

	g.Go(func() error {
		defer close(itemChan)

		for _, item := range items {
			select {
			case itemChan <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("fan out failed: %w", err)
	}

	return nil
}
