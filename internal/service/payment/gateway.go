package payment

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

const shardCount = 32

// shard хранит часть PaymentRecord под собственным мьютексом, чтобы
// несвязанные платежи не сериализовались одним глобальным локом.
type shard struct {
	mu      sync.Mutex
	records map[string]domain.PaymentRecord
}

// Gateway — симулированный платёжный шлюз. Поведенчески это внешний сервис:
// charge и refund могут падать как временно, так и окончательно.
type Gateway struct {
	shards [shardCount]*shard

	// failureRate — вероятность отказа на вызов, [0, 1).
	failureRate float64
	// latency имитирует сетевую задержку провайдера; 0 в тестах.
	latency time.Duration
	// roll отдаёт псевдослучайное число [0, 1); подменяется в тестах.
	roll func() float64

	logger *log.Entry
}

// Option настраивает Gateway.
type Option func(*Gateway)

// WithFailureRate задаёт вероятность отказа провайдера.
func WithFailureRate(rate float64) Option {
	return func(g *Gateway) {
		g.failureRate = rate
	}
}

// WithLatency задаёт имитацию сетевой задержки на вызов.
func WithLatency(latency time.Duration) Option {
	return func(g *Gateway) {
		g.latency = latency
	}
}

// WithRoll подменяет источник случайности (для тестов).
func WithRoll(roll func() float64) Option {
	return func(g *Gateway) {
		g.roll = roll
	}
}

// NewGateway создаёт шлюз; по умолчанию отказов нет.
func NewGateway(logger *log.Entry, opts ...Option) *Gateway {
	if logger == nil {
		logger = log.New().WithField("component", "payment-gateway")
	}

	g := &Gateway{
		roll:   rand.Float64,
		logger: logger,
	}
	for i := range g.shards {
		g.shards[i] = &shard{records: make(map[string]domain.PaymentRecord)}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Charge списывает amountMinor с клиента и возвращает идентификатор платежа.
// Сумма <= 0 — постоянная ошибка, попытка ретрая на неё не тратится.
func (g *Gateway) Charge(ctx context.Context, amountMinor int64, customerID string) (string, error) {
	if amountMinor <= 0 {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amountMinor)
	}

	if err := g.simulateCall(ctx); err != nil {
		return "", err
	}
	if g.failureRate > 0 && g.roll() < g.failureRate {
		g.logger.WithField("customer_id", customerID).Warn("charge declined by gateway")
		return "", domain.ErrPaymentFailed
	}

	now := time.Now().UTC()
	record := domain.PaymentRecord{
		ID:          "pay_" + uuid.NewString(),
		AmountMinor: amountMinor,
		CustomerID:  customerID,
		Status:      domain.PaymentStatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sh := g.shardFor(record.ID)
	sh.mu.Lock()
	sh.records[record.ID] = record
	sh.mu.Unlock()

	return record.ID, nil
}

// Refund переводит платёж в refunded. Возврат возможен только из completed:
// ни повторного возврата, ни возврата незавершённого списания.
func (g *Gateway) Refund(ctx context.Context, paymentID string) error {
	if err := g.simulateCall(ctx); err != nil {
		return err
	}
	if g.failureRate > 0 && g.roll() < g.failureRate {
		g.logger.WithField("payment_id", paymentID).Warn("refund failed at gateway")
		return domain.ErrPaymentTemporary
	}

	sh := g.shardFor(paymentID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	record, ok := sh.records[paymentID]
	if !ok {
		return fmt.Errorf("%w: original payment not found: %s", domain.ErrRefundFailed, paymentID)
	}
	if record.Status != domain.PaymentStatusCompleted {
		return fmt.Errorf("%w: cannot refund payment with status %s", domain.ErrRefundFailed, record.Status)
	}

	record.Status = domain.PaymentStatusRefunded
	record.UpdatedAt = time.Now().UTC()
	sh.records[paymentID] = record

	return nil
}

// CheckStatus — чистое чтение статуса платежа.
func (g *Gateway) CheckStatus(paymentID string) (domain.PaymentStatus, error) {
	sh := g.shardFor(paymentID)
	sh.mu.Lock()
	record, ok := sh.records[paymentID]
	sh.mu.Unlock()

	if !ok {
		return "", domain.ErrPaymentNotFound
	}
	return record.Status, nil
}

func (g *Gateway) simulateCall(ctx context.Context) error {
	if g.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(g.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *Gateway) shardFor(paymentID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(paymentID))
	return g.shards[h.Sum32()%shardCount]
}

var _ domain.PaymentGateway = (*Gateway)(nil)
