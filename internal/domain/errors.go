package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего идентификатора ресторана.
	ErrRestaurantRequired = errors.New("restaurant_id is required")
	// ErrInvalidOrderItems — позиции заказа не проходят валидацию (пусто, qty <= 0, цена < 0).
	ErrInvalidOrderItems = errors.New("invalid order items")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists — заказ с таким ID уже сохранён.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrIdempotencyConflict — заказ с таким idempotency-key уже создан.
	ErrIdempotencyConflict = errors.New("order with this idempotency key already exists")
	// ErrInvalidStateTransition — запрошенный переход статуса не разрешён машиной состояний
	// либо статус в хранилище изменился с момента последнего чтения.
	ErrInvalidStateTransition = errors.New("invalid order state transition")
	// ErrUnauthorizedAccess — заказ принадлежит другому клиенту.
	ErrUnauthorizedAccess = errors.New("unauthorized access to order")

	// ErrRestaurantUnavailable — ресторан закрыт, не существует либо сервис доступности не ответил.
	ErrRestaurantUnavailable = errors.New("restaurant is not available")

	// ErrInvalidAmount — некорректная сумма платежа; не ретраится.
	ErrInvalidAmount = errors.New("invalid payment amount")
	// ErrPaymentFailed — шлюз отклонил списание; ретраится по политике.
	ErrPaymentFailed = errors.New("payment processing failed")
	// ErrPaymentTemporary — временная ошибка платёжного шлюза.
	ErrPaymentTemporary = errors.New("payment gateway temporary error")
	// ErrPaymentNotFound — платёж с таким идентификатором неизвестен шлюзу.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrRefundFailed — возврат невозможен или не удался; отмену заказа не откатывает.
	ErrRefundFailed = errors.New("refund failed")

	// ErrEventPublish — ошибка при публикации события жизненного цикла.
	ErrEventPublish = errors.New("event publish failed")
)

// IdempotencyConflictError несёт идентификатор уже созданного заказа,
// чтобы вызывающая сторона могла вернуть прежний результат вместо слепого ретрая.
type IdempotencyConflictError struct {
	Key             string
	ExistingOrderID string
}

func (e *IdempotencyConflictError) Error() string {
	return fmt.Sprintf("order with idempotency key %q already exists: %s", e.Key, e.ExistingOrderID)
}

// Is делает ошибку совместимой с errors.Is(err, ErrIdempotencyConflict).
func (e *IdempotencyConflictError) Is(target error) bool {
	return target == ErrIdempotencyConflict
}

// InvalidTransitionError описывает отклонённый переход статуса.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order state transition: %s -> %s", e.From, e.To)
}

// Is делает ошибку совместимой с errors.Is(err, ErrInvalidStateTransition).
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// IsRetryablePaymentError сообщает, имеет ли смысл повторять списание.
func IsRetryablePaymentError(err error) bool {
	return errors.Is(err, ErrPaymentFailed) || errors.Is(err, ErrPaymentTemporary)
}
