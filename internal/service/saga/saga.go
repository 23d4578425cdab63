package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
	"github.com/vladislavdragonenkov/food-oms/internal/metrics"
)

// CreateOrderItem — позиция заказа в запросе на создание.
type CreateOrderItem struct {
	MenuItemID string
	Name       string
	Qty        int32
	PriceMinor int64
}

// CreateOrderRequest — входные данные createOrder. Сумму заказа клиент не
// присылает: она всегда пересчитывается из позиций.
type CreateOrderRequest struct {
	RestaurantID   string
	Items          []CreateOrderItem
	IdempotencyKey string
}

// OrderSaga оркестрирует оформление заказа: идемпотентность, проверку
// ресторана, список в хранилище, оплату с ретраями и компенсацию-возврат
// при отмене. Идентификатор клиента всегда передаётся явно.
type OrderSaga struct {
	orders       domain.OrderRepository
	payments     domain.PaymentGateway
	availability domain.AvailabilityClient
	publisher    domain.EventPublisher
	idem         idempotencyGuard

	chargeRetry RetryPolicy
	refundRetry RetryPolicy

	logger  *log.Entry
	metrics *metrics.SagaMetrics
}

// NewOrderSaga создаёт рабочий экземпляр саги.
func NewOrderSaga(
	orders domain.OrderRepository,
	payments domain.PaymentGateway,
	availability domain.AvailabilityClient,
	publisher domain.EventPublisher,
	logger *log.Entry,
) *OrderSaga {
	s := newOrderSaga(orders, payments, availability, publisher, logger)
	s.metrics = metrics.NewSagaMetrics()
	return s
}

// NewOrderSagaWithoutMetrics создаёт сагу без метрик (для тестов).
func NewOrderSagaWithoutMetrics(
	orders domain.OrderRepository,
	payments domain.PaymentGateway,
	availability domain.AvailabilityClient,
	publisher domain.EventPublisher,
	logger *log.Entry,
) *OrderSaga {
	return newOrderSaga(orders, payments, availability, publisher, logger)
}

func newOrderSaga(
	orders domain.OrderRepository,
	payments domain.PaymentGateway,
	availability domain.AvailabilityClient,
	publisher domain.EventPublisher,
	logger *log.Entry,
) *OrderSaga {
	if logger == nil {
		logger = log.New().WithField("component", "order-saga")
	}
	return &OrderSaga{
		orders:       orders,
		payments:     payments,
		availability: availability,
		publisher:    publisher,
		idem:         idempotencyGuard{orders: orders},
		chargeRetry:  DefaultPaymentRetryPolicy(),
		refundRetry:  DefaultPaymentRetryPolicy(),
		logger:       logger,
		metrics:      nil,
	}
}

// CreateOrder проводит заказ от запроса до терминального исхода оплаты.
// Неудача списания после всех ретраев — не ошибка вызова: заказ возвращается
// в статусе payment_failed, его строка и есть durable-запись о неудаче.
func (s *OrderSaga) CreateOrder(ctx context.Context, req CreateOrderRequest, customerID string) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.SagaStarted()
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.SagaFinished()
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	order, err := s.buildOrder(req, customerID)
	if err != nil {
		return domain.Order{}, err
	}

	// Шаг 1: резерв ключа идемпотентности до похода во внешние сервисы.
	if err := s.idem.Reserve(req.IdempotencyKey); err != nil {
		if s.metrics != nil && errors.Is(err, domain.ErrIdempotencyConflict) {
			s.metrics.RecordIdempotencyConflict()
		}
		return domain.Order{}, err
	}

	// Шаг 2: проверка ресторана; таймаут и транспортная ошибка равны "недоступен".
	available, err := s.availability.IsAvailable(ctx, req.RestaurantID)
	if err != nil {
		s.logger.WithError(err).WithField("restaurant_id", req.RestaurantID).Warn("availability check failed")
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrRestaurantUnavailable, req.RestaurantID)
	}
	if !available {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrRestaurantUnavailable, req.RestaurantID)
	}

	// Шаг 4: точка коммита. После успешной вставки заказ виден запросам
	// независимо от исхода оплаты. Гонка по idempotency-key
	// разрешается уникальным индексом: выигрывает ровно один писатель.
	if err := s.orders.Create(order); err != nil {
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			if s.metrics != nil {
				s.metrics.RecordIdempotencyConflict()
			}
			return domain.Order{}, err
		}
		s.logger.WithError(err).Error("failed to persist order")
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.publishEvent(domain.OrderEvent{
		Type:         domain.EventTypeOrderCreated,
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Occurred:     order.CreatedAt,
	})

	// Шаг 5: оплата под политикой ретраев.
	return s.chargeOrder(ctx, order)
}

func (s *OrderSaga) buildOrder(req CreateOrderRequest, customerID string) (domain.Order, error) {
	now := time.Now().UTC()

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		RestaurantID:   req.RestaurantID,
		Status:         domain.OrderStatusCreated,
		Items:          items,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		for _, err := range errs {
			if errors.Is(err, domain.ErrCustomerRequired) || errors.Is(err, domain.ErrRestaurantRequired) {
				return domain.Order{}, err
			}
		}
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrInvalidOrderItems, errs[0])
	}

	return order, nil
}

// chargeOrder выполняет списание и фиксирует исход статусом заказа.
func (s *OrderSaga) chargeOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	stepStart := time.Now()
	total := order.TotalMinor()

	var paymentID string
	chargeErr := s.chargeRetry.Do(ctx, "charge", s.logger, domain.IsRetryablePaymentError, func() error {
		id, err := s.payments.Charge(ctx, total, order.CustomerID)
		if err != nil {
			return err
		}
		paymentID = id
		return nil
	})
	if s.metrics != nil {
		s.metrics.RecordStepDuration("charge", time.Since(stepStart))
	}

	if chargeErr != nil {
		s.logger.WithError(chargeErr).WithField("order_id", order.ID).Warn("payment failed, marking order")
		if s.metrics != nil {
			s.metrics.RecordPaymentFailed()
		}
		return s.settleStatus(order, domain.OrderStatusPaymentFailed, "")
	}

	return s.settleStatus(order, domain.OrderStatusPaymentPending, paymentID)
}

// settleStatus применяет исход оплаты через CAS. Проигрыш гонки (например,
// конкурентная отмена между вставкой и оплатой) не фатален: возвращаем
// свежую версию заказа.
func (s *OrderSaga) settleStatus(order domain.Order, next domain.OrderStatus, paymentID string) (domain.Order, error) {
	updated, err := s.orders.CompareAndUpdateStatus(order.ID, order.Status, next, paymentID)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"next":     next,
		}).Warn("status update lost the race, returning fresh order")

		fresh, getErr := s.orders.Get(order.ID)
		if getErr != nil {
			return domain.Order{}, getErr
		}
		return fresh, nil
	}

	s.publishEvent(domain.OrderEvent{
		Type:           domain.EventTypeOrderStatusChanged,
		OrderID:        updated.ID,
		CustomerID:     updated.CustomerID,
		RestaurantID:   updated.RestaurantID,
		Status:         updated.Status,
		PreviousStatus: order.Status,
		Occurred:       updated.UpdatedAt,
	})

	return updated, nil
}

// CancelOrder отменяет заказ клиента. Если платёж успел завершиться вне
// обычного потока саги (payment_completed), после записи отмены запускается
// возврат; его неудача отмену не откатывает, а возвращается как ErrRefundFailed
// для дорешивания оператором или фоновой задачей.
func (s *OrderSaga) CancelOrder(ctx context.Context, orderID, customerID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.CustomerID != customerID {
		return domain.Order{}, domain.ErrUnauthorizedAccess
	}

	if order.Status == domain.OrderStatusPaymentCompleted {
		return s.cancelWithRefund(ctx, order)
	}

	if err := domain.Transition(order.Status, domain.OrderStatusCancelled); err != nil {
		return domain.Order{}, err
	}

	cancelled, err := s.orders.CompareAndUpdateStatus(order.ID, order.Status, domain.OrderStatusCancelled, "")
	if err != nil {
		return domain.Order{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.publishCancelled(cancelled, order.Status)

	return cancelled, nil
}

// cancelWithRefund — защитная ветка отмены после завершённого платежа.
// Отмена пишется первой и не откатывается при неудаче возврата.
func (s *OrderSaga) cancelWithRefund(ctx context.Context, order domain.Order) (domain.Order, error) {
	cancelled, err := s.orders.CompareAndUpdateStatus(order.ID, order.Status, domain.OrderStatusCancelled, "")
	if err != nil {
		return domain.Order{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.publishCancelled(cancelled, order.Status)

	refundErr := s.refundRetry.Do(ctx, "refund", s.logger,
		func(err error) bool { return errors.Is(err, domain.ErrPaymentTemporary) },
		func() error { return s.payments.Refund(ctx, order.PaymentID) },
	)
	if refundErr != nil {
		s.logger.WithError(refundErr).WithFields(log.Fields{
			"order_id":   order.ID,
			"payment_id": order.PaymentID,
		}).Error("refund failed, order stays cancelled")
		if s.metrics != nil {
			s.metrics.RecordRefundFailed()
		}
		if !errors.Is(refundErr, domain.ErrRefundFailed) {
			refundErr = fmt.Errorf("%w: %v", domain.ErrRefundFailed, refundErr)
		}
		return cancelled, refundErr
	}

	return cancelled, nil
}

// UpdateStatus переводит заказ в новый статус через машину состояний.
// Источник таких переходов — внешние процессы (например, расчёт платежа).
func (s *OrderSaga) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if err := domain.Transition(order.Status, next); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.orders.CompareAndUpdateStatus(order.ID, order.Status, next, "")
	if err != nil {
		return domain.Order{}, err
	}

	s.publishEvent(domain.OrderEvent{
		Type:           domain.EventTypeOrderStatusChanged,
		OrderID:        updated.ID,
		CustomerID:     updated.CustomerID,
		RestaurantID:   updated.RestaurantID,
		Status:         updated.Status,
		PreviousStatus: order.Status,
		Occurred:       updated.UpdatedAt,
	})

	return updated, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *OrderSaga) GetOrder(orderID string) (domain.Order, error) {
	return s.orders.Get(orderID)
}

// GetOrderForUser возвращает заказ, если пользователь — его клиент либо
// владелец ресторана. Ошибка проверки владения трактуется как "не владелец".
func (s *OrderSaga) GetOrderForUser(ctx context.Context, orderID, userID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.CustomerID == userID {
		return order, nil
	}

	owner, err := s.availability.IsOwner(ctx, order.RestaurantID, userID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("owner check failed")
		return domain.Order{}, domain.ErrUnauthorizedAccess
	}
	if !owner {
		return domain.Order{}, domain.ErrUnauthorizedAccess
	}

	return order, nil
}

// ListByCustomer возвращает страницу заказов клиента.
func (s *OrderSaga) ListByCustomer(customerID string, page domain.Page) ([]domain.Order, error) {
	return s.orders.ListByCustomer(customerID, page)
}

// ListByRestaurant возвращает страницу заказов ресторана.
func (s *OrderSaga) ListByRestaurant(restaurantID string, page domain.Page) ([]domain.Order, error) {
	return s.orders.ListByRestaurant(restaurantID, page)
}

func (s *OrderSaga) publishCancelled(order domain.Order, previous domain.OrderStatus) {
	s.publishEvent(domain.OrderEvent{
		Type:           domain.EventTypeOrderCancelled,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		RestaurantID:   order.RestaurantID,
		Status:         order.Status,
		PreviousStatus: previous,
		Occurred:       order.UpdatedAt,
	})
}

// publishEvent — fire-and-forget: доставка событий внешняя, её неудача
// никогда не валит сагу.
func (s *OrderSaga) publishEvent(event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": event.OrderID,
			"event":    event.Type,
		}).Warn("failed to publish order event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished()
	}
}
