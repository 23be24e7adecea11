// Package timeout bounds blocking calls to external capabilities.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a bounded call did not finish in time.
var ErrTimeout = errors.New("timeout")

// Do runs fn under a deadline of d. A non-positive d keeps the parent
// context as is. Do returns when the deadline passes even if fn ignores its
// context; fn then finishes in the background and its result is discarded.
// A timeout returns ErrTimeout wrapping the context error.
func Do[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	// Buffered so an abandoned fn can still send and exit.
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, wrap(ctx.Err())
	case r := <-done:
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return zero, wrap(ctxErr)
		}
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return zero, wrap(r.err)
			}
			return zero, r.err
		}
		return r.v, nil
	}
}

func wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
