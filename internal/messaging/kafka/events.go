package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// Topics для Kafka
const (
	TopicOrderEvents = "food-oms.order.events"
)

// OrderEventMessage — wire-представление события жизненного цикла заказа.
type OrderEventMessage struct {
	EventType      string    `json:"event_type"`
	OrderID        string    `json:"order_id"`
	CustomerID     string    `json:"customer_id"`
	RestaurantID   string    `json:"restaurant_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewOrderEventMessage конвертирует доменное событие в wire-формат.
func NewOrderEventMessage(event domain.OrderEvent) OrderEventMessage {
	occurred := event.Occurred
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return OrderEventMessage{
		EventType:      string(event.Type),
		OrderID:        event.OrderID,
		CustomerID:     event.CustomerID,
		RestaurantID:   event.RestaurantID,
		Status:         string(event.Status),
		PreviousStatus: string(event.PreviousStatus),
		Timestamp:      occurred,
	}
}
