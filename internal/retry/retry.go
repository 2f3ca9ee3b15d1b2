// Package retry implements a bounded retry policy with a fixed delay
// and a caller-supplied retryable-error predicate.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// Attempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	Attempts int

	// Delay is the fixed pause between attempts.
	Delay time.Duration

	// Retryable reports whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// Do executes fn until it succeeds, a non-retryable error occurs, the
// attempts are exhausted, or the context is cancelled. The attempt
// number passed to fn is 1-based. Returns the last error on exhaustion,
// or ctx.Err() when cancelled between attempts.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		if i < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return lastErr
}
