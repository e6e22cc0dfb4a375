package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	calls := 0
	got, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, fmt.Errorf("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 || calls != 3 {
		t.Fatalf("got %d after %d calls", got, calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}

	calls := 0
	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, fmt.Errorf("still broken")
	})
	if err == nil {
		t.Fatal("expected final error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestRetry_StopsWhenNotRetryable(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		RetryIf:        func(error) bool { return false },
	}

	calls := 0
	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, fmt.Errorf("permanent")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d calls", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, DefaultRetryConfig(), func() (int, error) {
		return 0, fmt.Errorf("never reached on cancelled context")
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}, func() error {
		calls++
		if calls < 2 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
