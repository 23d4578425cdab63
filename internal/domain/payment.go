package domain

import "time"

// PaymentStatus описывает состояние платежа в шлюзе.
type PaymentStatus string

const (
	// PaymentStatusCompleted — деньги списаны; создаётся только при успешном charge.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusRefunded — деньги возвращены клиенту.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentRecord принадлежит исключительно платёжному шлюзу.
// Создаётся при успешном списании, мутируется только возвратом; никогда не удаляется.
type PaymentRecord struct {
	ID          string
	AmountMinor int64
	CustomerID  string
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
