package restaurant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/restaurants/restaurant-1/availability" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("true"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)

	available, err := client.IsAvailable(context.Background(), "restaurant-1")
	if err != nil {
		t.Fatalf("is available: %v", err)
	}
	if !available {
		t.Fatal("expected restaurant to be available")
	}
}

func TestClient_IsOwner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/restaurants/restaurant-1/is-owner/user-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("false"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)

	owner, err := client.IsOwner(context.Background(), "restaurant-1", "user-1")
	if err != nil {
		t.Fatalf("is owner: %v", err)
	}
	if owner {
		t.Fatal("expected not owner")
	}
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)

	if _, err := client.IsAvailable(context.Background(), "restaurant-1"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("true"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond, nil, nil)

	if _, err := client.IsAvailable(context.Background(), "restaurant-1"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_BreakerShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := NewCircuitBreaker(BreakerConfig{
		Window:      time.Minute,
		MinRequests: 3,
		FailureRate: 0.5,
		OpenFor:     time.Minute,
	}, nil)
	client := NewClient(srv.URL, time.Second, breaker, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = client.IsAvailable(ctx, "restaurant-1")
	}
	if breaker.State() != CircuitOpen {
		t.Fatal("breaker must be open after repeated failures")
	}

	srv.Close() // дальше сеть недоступна, но открытый брейкер до неё и не дойдёт
	start := time.Now()
	_, err := client.IsAvailable(ctx, "restaurant-1")
	if err == nil {
		t.Fatal("expected error from open breaker")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("open breaker must answer immediately")
	}
}
