package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusCreated — заказ сохранён, оплата ещё не запускалась.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusPaymentPending — списание принято шлюзом; для happy path это финальный статус.
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	// OrderStatusPaymentCompleted — платёж подтверждён внешним расчётом (вне обычного потока саги).
	OrderStatusPaymentCompleted OrderStatus = "payment_completed"
	// OrderStatusPaymentFailed — попытки списания исчерпаны; терминальный статус.
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	// OrderStatusCancelled — заказ отменён клиентом; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPaymentPending, OrderStatusPaymentCompleted,
		OrderStatusPaymentFailed, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// MenuItemID — внешний идентификатор позиции меню.
	MenuItemID string
	// Name — снимок названия на момент заказа.
	Name string
	// Qty — количество единиц товара.
	Qty int32
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
}

// Order агрегирует состояние заказа и его позиции.
// Позиции иммутабельны после создания; статус меняется только через
// compare-and-update операцию репозитория.
type Order struct {
	ID           string
	CustomerID   string
	RestaurantID string
	Status       OrderStatus
	Items        []OrderItem
	// PaymentID заполняется один раз после успешного списания; пуст до того.
	PaymentID string
	// IdempotencyKey опционален; непустой ключ уникален среди всех когда-либо созданных заказов.
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalMinor пересчитывает сумму заказа из позиций: qty * price.
// Сумма, присланная клиентом, никогда не используется.
func (o *Order) TotalMinor() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Qty) * item.PriceMinor
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.RestaurantID == "" {
		errs = append(errs, ErrRestaurantRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}

// OrderEventType определяет тип события жизненного цикла заказа.
type OrderEventType string

const (
	EventTypeOrderCreated       OrderEventType = "order.created"
	EventTypeOrderStatusChanged OrderEventType = "order.status_changed"
	EventTypeOrderCancelled     OrderEventType = "order.cancelled"
)

// OrderEvent — событие жизненного цикла, публикуемое сагой во внешний мир.
type OrderEvent struct {
	Type           OrderEventType
	OrderID        string
	CustomerID     string
	RestaurantID   string
	Status         OrderStatus
	PreviousStatus OrderStatus
	Occurred       time.Time
}
