package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy wraps a single-shot call with bounded exponential backoff.
type Policy struct {
	MaxAttempts    int           // total attempts including the first (min 1)
	BaseDelay      time.Duration // delay before the second attempt
	Multiplier     float64       // delay growth factor per attempt
	JitterFraction float64       // extra random delay in [0, JitterFraction*delay]
}

// DefaultPolicy matches the tuning most LLM APIs tolerate well.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// ExhaustedError reports that every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts exhausted: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// retryable is satisfied by failures that classify themselves.
type retryable interface {
	Retryable() bool
}

// isRetryable reports whether reattempting may succeed. Errors that do not
// classify themselves are treated as retryable; terminal kinds must say so.
func isRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Delay returns the backoff before the given retry, attempt numbering
// starting at 1 for the delay after the first failure.
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.JitterFraction > 0 {
		d += rand.Float64() * p.JitterFraction * d
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, a terminal failure occurs, attempts run out,
// or ctx is cancelled mid-backoff. The first attempt runs immediately.
func Do[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var zero T
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}
		if attempt == max {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}
	return zero, &ExhaustedError{Attempts: max, Err: lastErr}
}
