package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Уникальность idempotency-key обеспечивается отдельным индексом под тем же
// мьютексом, что и записи: из двух конкурентных Create с одним ключом
// детерминированно выигрывает ровно один.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[string]domain.Order
	byIdem map[string]string // idempotency key -> order id, записи не удаляются
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:  make(map[string]domain.Order),
		byIdem: make(map[string]string),
	}
}

// Create сохраняет новый заказ, резервируя его idempotency-key.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderAlreadyExists
	}
	if order.IdempotencyKey != "" {
		if existingID, exists := r.byIdem[order.IdempotencyKey]; exists {
			return &domain.IdempotencyConflictError{
				Key:             order.IdempotencyKey,
				ExistingOrderID: existingID,
			}
		}
		r.byIdem[order.IdempotencyKey] = order.ID
	}

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// FindByIdempotencyKey возвращает заказ по ключу идемпотентности.
func (r *orderRepositoryInMemory) FindByIdempotencyKey(key string) (domain.Order, error) {
	if key == "" {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdem[key]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(r.items[id]), nil
}

// CompareAndUpdateStatus атомарно переводит заказ из expected в next.
// Переход, стартующий не из наблюдаемого статуса, отклоняется: писатель
// обязан перечитать заказ и повторить.
func (r *orderRepositoryInMemory) CompareAndUpdateStatus(id string, expected, next domain.OrderStatus, paymentID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if order.Status != expected {
		return domain.Order{}, &domain.InvalidTransitionError{From: order.Status, To: next}
	}

	order.Status = next
	if paymentID != "" {
		order.PaymentID = paymentID
	}
	order.UpdatedAt = time.Now().UTC()
	r.items[id] = order

	return cloneOrder(order), nil
}

// ListByCustomer возвращает заказы клиента, новые раньше старых.
func (r *orderRepositoryInMemory) ListByCustomer(customerID string, page domain.Page) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.CustomerID == customerID }, page)
}

// ListByRestaurant возвращает заказы ресторана, новые раньше старых.
func (r *orderRepositoryInMemory) ListByRestaurant(restaurantID string, page domain.Page) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.RestaurantID == restaurantID }, page)
}

func (r *orderRepositoryInMemory) list(match func(domain.Order) bool, page domain.Page) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.items {
		if match(order) {
			result = append(result, cloneOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if page.Offset > 0 {
		if page.Offset >= len(result) {
			return []domain.Order{}, nil
		}
		result = result[page.Offset:]
	}
	if page.Limit > 0 && len(result) > page.Limit {
		result = result[:page.Limit]
	}

	return result, nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = append([]domain.OrderItem(nil), src.Items...)
	return dst
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
