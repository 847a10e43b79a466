// Package retry provides a bounded retry helper for operations that can fail
// on concurrency conflicts (optimistic lock losses, serialization failures).
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy bounds a retry loop: total attempts and the jittered wait between them.
// The wait before each re-attempt is Delay + random(0, Jitter).
type Policy struct {
	Attempts int
	Delay    time.Duration
	Jitter   time.Duration
}

// DefaultPolicy returns the standard conflict-retry budget:
// 3 attempts, 100ms base delay, up to 300ms of jitter.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Delay:    100 * time.Millisecond,
		Jitter:   300 * time.Millisecond,
	}
}

// Do runs fn up to p.Attempts times, waiting a jittered delay between attempts.
// An error is retried only when retryable(err) reports true; any other error
// aborts immediately. The last error is returned after the budget is exhausted.
// Context cancellation interrupts the wait and returns ctx.Err().
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == p.Attempts {
			return err
		}

		wait := p.Delay
		if p.Jitter > 0 {
			wait += rand.N(p.Jitter)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
