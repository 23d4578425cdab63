package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2.0}

	calls := 0
	err := p.Do(context.Background(), "op", nil, nil, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2.0}

	calls := 0
	wantErr := domain.ErrPaymentFailed
	err := p.Do(context.Background(), "op", nil, domain.IsRetryablePaymentError, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_NonRetryableStopsImmediately(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2.0}

	calls := 0
	permanent := errors.New("validation failed")
	err := p.Do(context.Background(), "op", nil, domain.IsRetryablePaymentError, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d calls", calls)
	}
}

func TestRetryPolicy_BackoffDelays(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, BackoffFactor: 2.0}

	var stamps []time.Time
	_ = p.Do(context.Background(), "op", nil, nil, func() error {
		stamps = append(stamps, time.Now())
		return domain.ErrPaymentFailed
	})

	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	// Первая пауза >= 100ms, вторая >= 200ms (удвоение).
	if gap := stamps[1].Sub(stamps[0]); gap < 100*time.Millisecond {
		t.Fatalf("first delay too short: %v", gap)
	}
	if gap := stamps[2].Sub(stamps[1]); gap < 200*time.Millisecond {
		t.Fatalf("second delay too short: %v", gap)
	}
}

func TestRetryPolicy_MaxDelayCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, InitialDelay: 10 * time.Millisecond, MaxDelay: 15 * time.Millisecond, BackoffFactor: 10.0}

	start := time.Now()
	_ = p.Do(context.Background(), "op", nil, nil, func() error {
		return domain.ErrPaymentFailed
	})

	// Без капа задержки были бы 10ms+100ms+1s; с капом — не больше 10+15+15.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("MaxDelay cap not applied, elapsed %v", elapsed)
	}
}

func TestRetryPolicy_ContextCancelledDuringBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Minute, BackoffFactor: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, "op", nil, nil, func() error {
		calls++
		return domain.ErrPaymentFailed
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single attempt before cancellation, got %d", calls)
	}
}
