// Package retry runs an operation under an explicit retry policy, retrying
// only errors its classifier marks as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted signals that every allowed attempt failed with a transient error.
var ErrExhausted = errors.New("retries exhausted")

// Policy bounds the retry loop. Delay before attempt n (0-based, starting from
// the first retry) is BaseDelay * 2^n.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Retryable reports whether the error is transient. A nil classifier
	// retries nothing.
	Retryable func(error) bool
}

// Do runs op up to p.MaxAttempts times. Non-transient errors are returned
// immediately. When the attempt budget is spent the last error is wrapped in
// ErrExhausted. The backoff sleep is interrupted by context cancellation.
func Do(ctx context.Context, p Policy, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.BaseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}
