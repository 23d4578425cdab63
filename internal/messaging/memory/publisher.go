package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// Publisher — in-memory реализация EventPublisher: накапливает события
// для тестов и работает fallback-ом, когда брокер не настроен.
type Publisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent

	// FailWith позволяет смоделировать ошибку публикации в тестах.
	FailWith error
}

// NewPublisher создаёт пустой publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish запоминает событие.
func (p *Publisher) Publish(event domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailWith != nil {
		return p.FailWith
	}
	p.events = append(p.events, event)
	return nil
}

// Events возвращает копию накопленных событий.
func (p *Publisher) Events() []domain.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OrderEvent(nil), p.events...)
}

// EventsOfType возвращает события заданного типа.
func (p *Publisher) EventsOfType(t domain.OrderEventType) []domain.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]domain.OrderEvent, 0)
	for _, e := range p.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

var _ domain.EventPublisher = (*Publisher)(nil)
