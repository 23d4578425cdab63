package restaurant

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// MockClient — конфигурируемая заглушка AvailabilityClient для тестов.
type MockClient struct {
	mu sync.Mutex

	Available    bool
	AvailableErr error
	Owner        bool
	OwnerErr     error

	AvailableCalls int
	OwnerCalls     int
}

// NewMockClient возвращает mock с доступным рестораном по умолчанию.
func NewMockClient() *MockClient {
	return &MockClient{Available: true}
}

// IsAvailable возвращает заранее настроенный результат и считает вызовы.
func (m *MockClient) IsAvailable(_ context.Context, restaurantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AvailableCalls++
	return m.Available, m.AvailableErr
}

// IsOwner возвращает настроенный результат и считает вызовы.
func (m *MockClient) IsOwner(_ context.Context, restaurantID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OwnerCalls++
	return m.Owner, m.OwnerErr
}

var _ domain.AvailabilityClient = (*MockClient)(nil)
