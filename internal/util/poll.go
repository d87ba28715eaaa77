package util

import (
	"context"
	"time"
)

// Condition reports whether the awaited state has been reached. A non-nil
// error aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

// WaitUntil evaluates cond every interval until it reports true, cond fails,
// or ctx is cancelled. The caller injects the deadline through ctx, keeping
// timeout policy out of the combinator. Sleeping uses a timer, never a busy
// loop.
func WaitUntil(ctx context.Context, interval time.Duration, cond Condition) error {
	for {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
