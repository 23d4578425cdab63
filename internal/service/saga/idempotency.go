package saga

import (
	"errors"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// idempotencyGuard резервирует client-supplied ключи поверх уникального
// индекса репозитория заказов. Пустой ключ — no-op: идемпотентность opt-in.
// Предварительный Reserve ловит повтор до похода во внешние сервисы;
// окончательная гарантия — уникальный индекс при вставке самого заказа.
type idempotencyGuard struct {
	orders domain.OrderRepository
}

// Reserve возвращает IdempotencyConflictError с идентификатором уже
// созданного заказа, если ключ занят.
func (g idempotencyGuard) Reserve(key string) error {
	if key == "" {
		return nil
	}

	existing, err := g.orders.FindByIdempotencyKey(key)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil
		}
		return err
	}

	return &domain.IdempotencyConflictError{Key: key, ExistingOrderID: existing.ID}
}
