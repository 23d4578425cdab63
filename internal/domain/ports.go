package domain

import "context"

// PaymentGateway описывает взаимодействие с платёжным провайдером.
type PaymentGateway interface {
	// Charge инициирует списание и возвращает идентификатор платежа.
	// Сумма <= 0 даёт ErrInvalidAmount без обращения к провайдеру.
	Charge(ctx context.Context, amountMinor int64, customerID string) (string, error)
	// Refund возвращает средства по ранее успешному платежу (компенсация).
	Refund(ctx context.Context, paymentID string) error
	// CheckStatus — чистое чтение статуса платежа, без побочных эффектов.
	CheckStatus(paymentID string) (PaymentStatus, error)
}

// AvailabilityClient — read-only проверка ресторана во внешнем сервисе.
type AvailabilityClient interface {
	// IsAvailable сообщает, открыт ли ресторан и существует ли он вообще.
	IsAvailable(ctx context.Context, restaurantID string) (bool, error)
	// IsOwner сообщает, принадлежит ли ресторан пользователю.
	IsOwner(ctx context.Context, restaurantID, userID string) (bool, error)
}

// EventPublisher публикует события жизненного цикла заказа наружу.
// Сага зависит только от интерфейса: конкретный транспорт (Kafka, канал,
// in-memory double) подставляется при сборке приложения.
type EventPublisher interface {
	Publish(event OrderEvent) error
}
