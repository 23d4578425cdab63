package restaurant

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestBreaker(t *testing.T) (*CircuitBreaker, *time.Time) {
	t.Helper()

	cb := NewCircuitBreaker(BreakerConfig{
		Window:      30 * time.Second,
		MinRequests: 4,
		FailureRate: 0.5,
		OpenFor:     10 * time.Second,
	}, nil)

	now := time.Now()
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensOnFailureRate(t *testing.T) {
	cb, _ := newTestBreaker(t)

	fail := func() error { return errBoom }
	ok := func() error { return nil }

	// 2 успеха + 1 отказ: окно ещё меньше MinRequests, потом доля ниже порога — закрыт.
	_ = cb.Execute("check", ok)
	_ = cb.Execute("check", ok)
	_ = cb.Execute("check", fail)
	if cb.State() != CircuitClosed {
		t.Fatal("breaker must stay closed below threshold")
	}

	// Ещё отказы: 3/5 >= 0.5 — открывается.
	_ = cb.Execute("check", fail)
	_ = cb.Execute("check", fail)
	if cb.State() != CircuitOpen {
		t.Fatal("breaker must open after failure rate exceeded")
	}
}

func TestCircuitBreaker_ShortCircuitsWhenOpen(t *testing.T) {
	cb, _ := newTestBreaker(t)

	for i := 0; i < 4; i++ {
		_ = cb.Execute("check", func() error { return errBoom })
	}
	if cb.State() != CircuitOpen {
		t.Fatal("breaker must be open")
	}

	calls := 0
	err := cb.Execute("check", func() error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Fatal("open breaker must not invoke the operation")
	}
}

func TestCircuitBreaker_ProbeClosesAfterOpenWindow(t *testing.T) {
	cb, now := newTestBreaker(t)

	for i := 0; i < 4; i++ {
		_ = cb.Execute("check", func() error { return errBoom })
	}
	if cb.State() != CircuitOpen {
		t.Fatal("breaker must be open")
	}

	// До истечения окна — всё ещё замкнут.
	*now = now.Add(5 * time.Second)
	if err := cb.Execute("check", func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected short-circuit before open window elapses, got %v", err)
	}

	// После окна пропускается одиночный пробный вызов; успех закрывает брейкер.
	*now = now.Add(6 * time.Second)
	if err := cb.Execute("check", func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatal("breaker must close after successful probe")
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(t)

	for i := 0; i < 4; i++ {
		_ = cb.Execute("check", func() error { return errBoom })
	}

	*now = now.Add(11 * time.Second)
	if err := cb.Execute("check", func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("probe must reach the operation, got %v", err)
	}
	if cb.State() != CircuitOpen {
		t.Fatal("breaker must re-open after failed probe")
	}
}

func TestCircuitBreaker_WindowSlides(t *testing.T) {
	cb, now := newTestBreaker(t)

	// Отказы, которых не хватает до MinRequests.
	_ = cb.Execute("check", func() error { return errBoom })
	_ = cb.Execute("check", func() error { return errBoom })
	_ = cb.Execute("check", func() error { return errBoom })

	// Окно уезжает, старые отказы забываются.
	*now = now.Add(31 * time.Second)
	_ = cb.Execute("check", func() error { return nil })
	_ = cb.Execute("check", func() error { return errBoom })

	if cb.State() != CircuitClosed {
		t.Fatal("expired outcomes must not count toward failure rate")
	}
}
