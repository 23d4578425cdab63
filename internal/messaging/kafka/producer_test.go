package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

func testEvent() domain.OrderEvent {
	return domain.OrderEvent{
		Type:         domain.EventTypeOrderCreated,
		OrderID:      "order-123",
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Status:       domain.OrderStatusCreated,
		Occurred:     time.Now().UTC(),
	}
}

func TestProducer_Publish(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		topic:    TopicOrderEvents,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Проверяем содержимое сообщения, а не только факт отправки.
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg OrderEventMessage
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.OrderID != "order-123" || msg.EventType != string(domain.EventTypeOrderCreated) {
			return errors.New("unexpected message payload")
		}
		return nil
	})

	if err := producer.Publish(testEvent()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_Publish_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		topic:    TopicOrderEvents,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.Publish(testEvent())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// Ошибки транспорта заворачиваются в доменную ошибку публикации.
	if !errors.Is(err, domain.ErrEventPublish) {
		t.Fatalf("expected ErrEventPublish, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}
