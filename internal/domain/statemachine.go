package domain

// allowedTransitions перечисляет рёбра машины состояний заказа.
// Отмена из payment_completed сюда не входит: она идёт через ветку возврата
// в саге, а не через голую смену статуса.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated: {
		OrderStatusPaymentPending,
		OrderStatusPaymentFailed,
		OrderStatusCancelled,
	},
	OrderStatusPaymentPending: {
		OrderStatusPaymentCompleted,
		OrderStatusPaymentFailed,
		OrderStatusCancelled,
	},
}

// CanTransition сообщает, разрешён ли переход from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition валидирует переход и возвращает InvalidTransitionError, если ребро не разрешено.
func Transition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// IsTerminal сообщает, является ли статус конечным: из него нет автоматических переходов.
func IsTerminal(s OrderStatus) bool {
	return s == OrderStatusCancelled || s == OrderStatusPaymentFailed
}
