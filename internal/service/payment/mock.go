package payment

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// MockGateway — конфигурируемая заглушка PaymentGateway для тестов.
type MockGateway struct {
	mu sync.Mutex

	ChargeID  string
	ChargeErr error
	// ChargeErrs позволяет задать ошибки по попыткам; после исчерпания
	// списка используется ChargeErr.
	ChargeErrs []error
	RefundErr  error
	Status     domain.PaymentStatus
	StatusErr  error

	ChargeCalls int
	RefundCalls int
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		ChargeID: "pay_mock",
		Status:   domain.PaymentStatusCompleted,
	}
}

// Charge возвращает заранее настроенный результат и считает вызовы.
func (m *MockGateway) Charge(_ context.Context, amountMinor int64, customerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt := m.ChargeCalls
	m.ChargeCalls++

	if attempt < len(m.ChargeErrs) {
		if err := m.ChargeErrs[attempt]; err != nil {
			return "", err
		}
		return m.ChargeID, nil
	}
	if m.ChargeErr != nil {
		return "", m.ChargeErr
	}
	return m.ChargeID, nil
}

// Refund возвращает настроенную ошибку и считает вызовы.
func (m *MockGateway) Refund(_ context.Context, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCalls++
	return m.RefundErr
}

// CheckStatus возвращает настроенный статус.
func (m *MockGateway) CheckStatus(paymentID string) (domain.PaymentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusErr != nil {
		return "", m.StatusErr
	}
	return m.Status, nil
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
