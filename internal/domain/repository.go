package domain

// Page задаёт границы постраничной выборки.
type Page struct {
	Limit  int
	Offset int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderAlreadyExists при занятом ID
	// и IdempotencyConflictError, если непустой idempotency-key уже зарезервирован
	// другим заказом. Уникальность ключа — единственная межзапросная гарантия
	// взаимного исключения в системе.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// FindByIdempotencyKey возвращает заказ по ключу идемпотентности или ErrOrderNotFound.
	FindByIdempotencyKey(key string) (Order, error)
	// CompareAndUpdateStatus атомарно меняет статус заказа, только если текущий
	// статус в хранилище равен expected; иначе возвращает InvalidTransitionError.
	// Непустой paymentID записывается вместе со статусом.
	CompareAndUpdateStatus(id string, expected, next OrderStatus, paymentID string) (Order, error)
	// ListByCustomer возвращает заказы клиента, новые раньше старых.
	ListByCustomer(customerID string, page Page) ([]Order, error)
	// ListByRestaurant возвращает заказы ресторана, новые раньше старых.
	ListByRestaurant(restaurantID string, page Page) ([]Order, error)
}
