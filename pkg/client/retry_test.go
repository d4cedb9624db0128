package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) retryPolicy {
	return func(ErrorClass) RetryConfig {
		return RetryConfig{
			MaxAttempts:       attempts,
			InitialBackoff:    10 * time.Millisecond,
			MaxBackoff:        40 * time.Millisecond,
			BackoffMultiplier: 2.0,
		}
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	server := RetryConfigForErrorClass(ErrorClassServer)
	rateLimit := RetryConfigForErrorClass(ErrorClassRateLimit)

	if rateLimit.InitialBackoff <= server.InitialBackoff {
		t.Errorf("rate limit backoff %v should exceed server backoff %v",
			rateLimit.InitialBackoff, server.InitialBackoff)
	}
	if rateLimit.MaxBackoff < server.MaxBackoff {
		t.Errorf("rate limit max backoff %v should be >= server %v",
			rateLimit.MaxBackoff, server.MaxBackoff)
	}
	if got := RetryConfigForErrorClass("unknown"); got != DefaultRetryConfig() {
		t.Errorf("unknown class = %+v, want default", got)
	}
}

func TestBackoffFor(t *testing.T) {
	config := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffMultiplier: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffFor(config, tt.attempt); got != tt.want {
			t.Errorf("backoffFor(attempt %d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastPolicy(3), func() (ErrorClass, error) {
		calls++
		return "", nil
	})
	if err != nil {
		t.Errorf("retryWithBackoff() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastPolicy(3), func() (ErrorClass, error) {
		calls++
		if calls < 3 {
			return ErrorClassServer, errors.New("temporary failure")
		}
		return "", nil
	})
	if err != nil {
		t.Errorf("retryWithBackoff() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	cause := &QueryError{StatusCode: 500, Class: ErrorClassServer, Message: "boom"}
	calls := 0
	err := retryWithBackoff(context.Background(), fastPolicy(3), func() (ErrorClass, error) {
		calls++
		return ErrorClassServer, cause
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
	var qerr *QueryError
	if !errors.As(err, &qerr) || qerr != cause {
		t.Errorf("last error not reachable through %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_ClientErrorNoRetry(t *testing.T) {
	cause := errors.New("bad request")
	calls := 0
	err := retryWithBackoff(context.Background(), fastPolicy(3), func() (ErrorClass, error) {
		calls++
		return ErrorClassClient, cause
	})

	if err != cause {
		t.Errorf("error = %v, want the unwrapped client error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := func(ErrorClass) RetryConfig {
		return RetryConfig{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second, BackoffMultiplier: 1}
	}

	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := retryWithBackoff(ctx, policy, func() (ErrorClass, error) {
		calls++
		return ErrorClassNetwork, errors.New("connection reset")
	})

	if !errors.Is(err, ErrContextCancelled) || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want ErrContextCancelled wrapping context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancellation took %v", elapsed)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_RetryAfterOverridesBackoff(t *testing.T) {
	calls := 0
	start := time.Now()
	err := retryWithBackoff(context.Background(), fastPolicy(2), func() (ErrorClass, error) {
		calls++
		if calls == 1 {
			return ErrorClassRateLimit, &QueryError{
				StatusCode: 503,
				Class:      ErrorClassRateLimit,
				RetryAfter: 100 * time.Millisecond,
			}
		}
		return "", nil
	})
	if err != nil {
		t.Fatalf("retryWithBackoff() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("waited %v, want at least Retry-After", elapsed)
	}
}

func TestRetryWithBackoff_Jitter(t *testing.T) {
	var durations []time.Duration
	for i := 0; i < 5; i++ {
		calls := 0
		start := time.Now()
		_ = retryWithBackoff(context.Background(), fastPolicy(2), func() (ErrorClass, error) {
			calls++
			if calls == 1 {
				return ErrorClassServer, errors.New("fail")
			}
			return "", nil
		})
		durations = append(durations, time.Since(start))
	}

	// 10ms ±20%, plus scheduling slack.
	for _, d := range durations {
		if d < 7*time.Millisecond || d > 100*time.Millisecond {
			t.Errorf("backoff %v outside jitter window", d)
		}
	}
}
