package concurrent

import (
	"context"
	"errors"
	"sync"
)

// ForEach executes fn for each item in items concurrently.
// All goroutines are waited for even if one fails; the returned error joins
// every failure.
func ForEach[T any](items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(items))

	for _, item := range items {
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			if err := fn(item); err != nil {
				errCh <- err
			}
		}(item)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ForEachWithLimit executes fn for each item with a concurrency limit.
// Remaining work is skipped once the context is cancelled.
func ForEachWithLimit[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}

	if limit <= 0 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	errCh := make(chan error, len(items))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

loop:
	for _, item := range items {
		// Only launch once a token is held; on cancellation stop the loop
		// entirely so no goroutine runs (or releases a token) without one.
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				errCh <- err
				return
			}

			if err := fn(ctx, item); err != nil {
				errCh <- err
			}
		}(item)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
