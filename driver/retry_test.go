package driver

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		BackoffMultiplier: 2.0,
		MaxDelay:          60.0,
		Jitter:            false,
	}

	delays := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}

	for i, expected := range delays {
		got := policy.Delay(i)
		if got != expected {
			t.Errorf("attempt %d: expected %v, got %v", i, expected, got)
		}
	}
}

func TestRetryPolicyDelayWithMaxCap(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		BackoffMultiplier: 2.0,
		MaxDelay:          5.0,
		Jitter:            false,
	}

	got := policy.Delay(10)
	if got != 5*time.Second {
		t.Errorf("expected 5s (capped), got %v", got)
	}
}

func TestRetryPolicyDelayWithJitter(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		BackoffMultiplier: 2.0,
		MaxDelay:          60.0,
		Jitter:            true,
	}

	for i := 0; i < 100; i++ {
		got := policy.Delay(0)
		if got < 500*time.Millisecond || got > 1500*time.Millisecond {
			t.Errorf("jittered delay out of range: %v", got)
		}
	}
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: 0.001, BackoffMultiplier: 1, MaxDelay: 0.001}
}

func TestRetrySuccess(t *testing.T) {
	callCount := 0
	var retried []int
	policy := fastPolicy(3)
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		retried = append(retried, attempt)
	}

	result, err := Retry(context.Background(), policy, func(ctx context.Context) (Result, error) {
		callCount++
		if callCount < 3 {
			return Result{}, ErrorFromStatusCode(503, "overloaded", "openai", "")
		}
		return Result{Text: "success"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "success" {
		t.Errorf("expected %q, got %q", "success", result.Text)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("unexpected OnRetry attempts %v", retried)
	}
}

func TestRetryNonRetryableError(t *testing.T) {
	for _, failure := range []error{
		ErrorFromStatusCode(401, "invalid key", "openai", ""),
		newInvalidInputError("openai"),
		newConfigurationError(ErrMissingAPIKey, "no key"),
	} {
		callCount := 0
		_, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
			callCount++
			return "", failure
		})
		if err != failure {
			t.Errorf("expected original error, got %v", err)
		}
		if callCount != 1 {
			t.Errorf("%T: expected 1 call, got %d", failure, callCount)
		}
	}
}

func TestRetryExhausted(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), fastPolicy(2), func(ctx context.Context) (string, error) {
		callCount++
		return "", ErrorFromStatusCode(500, "server error", "anthropic", "")
	})
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError after retries exhausted, got %v", err)
	}
	if callCount != 3 { // 1 initial + 2 retries
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryCancelled(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: 1.0, BackoffMultiplier: 1, MaxDelay: 1.0}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	callCount := 0
	_, err := Retry(ctx, policy, func(ctx context.Context) (string, error) {
		callCount++
		return "", errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("cancellation must not be retryable")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", callCount)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 2 {
		t.Errorf("expected max_retries 2, got %d", p.MaxRetries)
	}
	if p.BaseDelay != 1.0 || p.MaxDelay != 60.0 || p.BackoffMultiplier != 2.0 {
		t.Errorf("unexpected delays %+v", p)
	}
	if !p.Jitter {
		t.Error("expected jitter = true")
	}
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	limited := ErrorFromStatusCode(429, "slow down", "openai", "")
	limited.(*RateLimitError).RetryAfter = 20 * time.Millisecond

	var delays []time.Duration
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: 5, BackoffMultiplier: 1, MaxDelay: 10}
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		delays = append(delays, delay)
	}

	callCount := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		callCount++
		if callCount == 1 {
			return "", limited
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(delays) != 1 || delays[0] != 20*time.Millisecond {
		t.Errorf("expected the Retry-After delay, got %v", delays)
	}
}

func TestRetryAfterAboveMaxDelayStops(t *testing.T) {
	limited := ErrorFromStatusCode(429, "slow down", "openai", "")
	limited.(*RateLimitError).RetryAfter = time.Minute

	callCount := 0
	_, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		callCount++
		return "", limited
	})
	if err != limited {
		t.Errorf("expected the rate limit error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		header string
		want   time.Duration
		ok     bool
	}{
		{"", 0, false},
		{"3", 3 * time.Second, true},
		{"0.5", 500 * time.Millisecond, true},
		{"0", 0, false},
		{"Wed, 01 May 2024 12:00:30 GMT", 30 * time.Second, true},
		{"Wed, 01 May 2024 11:59:00 GMT", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRetryAfter(tt.header, now)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%q: got (%v, %v), want (%v, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
