package driver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures exponential backoff around driver calls. Drivers
// never retry on their own; callers opt in with Retry.
type RetryPolicy struct {
	MaxRetries        int     // retries after the first attempt
	BaseDelay         float64 // seconds before the first retry
	MaxDelay          float64 // upper bound in seconds for any single wait
	BackoffMultiplier float64
	Jitter            bool // scale each wait by a random factor in [0.5, 1.5)
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns a policy of two retries starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          60.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay returns the computed wait before retry n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	secs := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		secs *= 0.5 + rand.Float64()
	}
	return seconds(secs)
}

// wait decides how long to sleep after err on retry n. A backend Retry-After
// hint replaces the computed delay; a hint above MaxDelay ends the retries.
func (p RetryPolicy) wait(err error, attempt int) (time.Duration, bool) {
	if attempt >= p.MaxRetries || !IsRetryable(err) {
		return 0, false
	}
	hint, ok := RetryAfter(err)
	if !ok {
		return p.Delay(attempt), true
	}
	if hint > seconds(p.MaxDelay) {
		return 0, false
	}
	return hint, true
}

// Retry calls fn until it succeeds, returns an error that IsRetryable rejects,
// or the policy runs out of attempts. The last error is returned unchanged.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		delay, ok := policy.wait(err, attempt)
		if !ok {
			var zero T
			return zero, err
		}
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, fmt.Errorf("request cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
