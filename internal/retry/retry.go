// Package retry implements a bounded exponential-backoff retry helper. The
// Channel Resolver uses it for recipient-profile cache writes; the work
// queue computes its own job backoff and the channel adapters do not retry.
package retry

import (
	"context"
	"time"
)

// Strategy describes a bounded exponential-backoff retry policy.
type Strategy struct {
	Attempts int           // maximum number of attempts, including the first
	Delay    time.Duration // delay before the first retry
	Backoff  float64       // multiplier applied to Delay after each attempt
}

// Default is a 3-attempt policy with backoff starting at 1s and doubling,
// the same numbers as the channel work queue's job retry rule.
var Default = Strategy{Attempts: 3, Delay: time.Second, Backoff: 2}

// Do runs fn up to s.Attempts times, sleeping with exponential backoff
// between attempts, and returns the last error if every attempt failed.
// It returns immediately if ctx is cancelled between attempts.
func Do(ctx context.Context, s Strategy, fn func() error) error {
	delay := s.Delay
	var lastErr error

	attempts := s.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * s.Backoff)
	}

	return lastErr
}
