// Package retry provides the retry policy shared by the reconciliation service.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy configures how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts int
	// Delays[i] is the wait after attempt i+1 fails. The last entry is reused
	// once the schedule runs out.
	Delays []time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(error) bool
	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Schedule builds a policy with an explicit delay schedule.
func Schedule(attempts int, delays ...time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Delays: delays}
}

// Linear builds a policy that waits step, 2*step, 3*step... between attempts.
func Linear(attempts int, step time.Duration) Policy {
	delays := make([]time.Duration, 0, attempts)
	for i := 1; i < attempts; i++ {
		delays = append(delays, time.Duration(i)*step)
	}
	return Policy{MaxAttempts: attempts, Delays: delays}
}

// Once is a policy that never retries.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

// ExhaustedError is returned once every attempt failed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v (after %d attempts)", e.Op, e.Err, e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Delay returns the wait after the given 1-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if len(p.Delays) == 0 || attempt < 1 {
		return 0
	}
	if attempt > len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[attempt-1]
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.Sleep = sleep
	return p
}

// WithRetryable returns a copy of the policy using the given predicate.
func (p Policy) WithRetryable(fn func(error) bool) Policy {
	p.Retryable = fn
	return p
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempts
// run out. fn receives the 1-based attempt number. The number of attempts made
// is returned alongside the error.
func (p Policy) Do(ctx context.Context, op string, fn func(attempt int) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return attempt, lastErr
		}
		if attempt < attempts {
			if err := sleep(ctx, p.Delay(attempt)); err != nil {
				return attempt, fmt.Errorf("%s: %w (retry cancelled)", op, lastErr)
			}
		}
	}
	return attempts, &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

// Sleep waits for the given duration or until the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
