package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

func TestNewOrderEventMessage(t *testing.T) {
	occurred := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	msg := NewOrderEventMessage(domain.OrderEvent{
		Type:           domain.EventTypeOrderStatusChanged,
		OrderID:        "order-123",
		CustomerID:     "customer-1",
		RestaurantID:   "restaurant-1",
		Status:         domain.OrderStatusPaymentPending,
		PreviousStatus: domain.OrderStatusCreated,
		Occurred:       occurred,
	})

	require.Equal(t, string(domain.EventTypeOrderStatusChanged), msg.EventType)
	assert.Equal(t, "order-123", msg.OrderID)
	assert.Equal(t, "customer-1", msg.CustomerID)
	assert.Equal(t, "restaurant-1", msg.RestaurantID)
	assert.Equal(t, string(domain.OrderStatusPaymentPending), msg.Status)
	assert.Equal(t, string(domain.OrderStatusCreated), msg.PreviousStatus)
	assert.Equal(t, occurred, msg.Timestamp)
}

func TestNewOrderEventMessage_ZeroTimestamp(t *testing.T) {
	msg := NewOrderEventMessage(domain.OrderEvent{
		Type:    domain.EventTypeOrderCreated,
		OrderID: "order-123",
	})

	require.False(t, msg.Timestamp.IsZero(), "timestamp must be filled for zero Occurred")
	assert.WithinDuration(t, time.Now().UTC(), msg.Timestamp, time.Second)
}
