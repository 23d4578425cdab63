package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

func TestPublisher_CollectsEvents(t *testing.T) {
	p := NewPublisher()

	events := []domain.OrderEvent{
		{Type: domain.EventTypeOrderCreated, OrderID: "order-1"},
		{Type: domain.EventTypeOrderStatusChanged, OrderID: "order-1"},
		{Type: domain.EventTypeOrderCancelled, OrderID: "order-2"},
	}
	for _, e := range events {
		if err := p.Publish(e); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	if got := p.Events(); len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	created := p.EventsOfType(domain.EventTypeOrderCreated)
	if len(created) != 1 || created[0].OrderID != "order-1" {
		t.Fatalf("unexpected created events: %+v", created)
	}
}

func TestPublisher_FailWith(t *testing.T) {
	p := NewPublisher()
	p.FailWith = errors.New("broker down")

	if err := p.Publish(domain.OrderEvent{OrderID: "order-1"}); err == nil {
		t.Fatal("expected configured failure")
	}
	if len(p.Events()) != 0 {
		t.Fatal("failed publish must not record the event")
	}
}

func TestPublisher_ConcurrentPublish(t *testing.T) {
	p := NewPublisher()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Publish(domain.OrderEvent{Type: domain.EventTypeOrderCreated})
		}()
	}
	wg.Wait()

	if got := len(p.Events()); got != 16 {
		t.Fatalf("expected 16 events, got %d", got)
	}
}
