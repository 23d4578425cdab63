package restaurant

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrCircuitOpen возвращается, когда вызовы к сервису доступности замкнуты накоротко.
var ErrCircuitOpen = errors.New("availability circuit breaker is open")

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// BreakerConfig задаёт параметры circuit breaker.
type BreakerConfig struct {
	// Window — размер скользящего окна, в котором считается доля отказов.
	Window time.Duration
	// MinRequests — минимум вызовов в окне, прежде чем доля отказов имеет смысл.
	MinRequests int
	// FailureRate — порог доли отказов [0, 1], при превышении брейкер открывается.
	FailureRate float64
	// OpenFor — сколько брейкер держится открытым до одиночного пробного вызова.
	OpenFor time.Duration
}

// DefaultBreakerConfig возвращает конфигурацию по умолчанию.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Window:      30 * time.Second,
		MinRequests: 5,
		FailureRate: 0.5,
		OpenFor:     10 * time.Second,
	}
}

type outcome struct {
	at     time.Time
	failed bool
}

// CircuitBreaker считает долю отказов в скользящем окне. После превышения
// порога вызовы замыкаются сразу, без ожидания сети; по истечении OpenFor
// пропускается ровно один пробный вызов, успех которого закрывает брейкер.
type CircuitBreaker struct {
	cfg    BreakerConfig
	logger *log.Entry

	mu       sync.Mutex
	state    CircuitState
	outcomes []outcome
	openedAt time.Time
	probing  bool

	now func() time.Time // подменяется в тестах
}

// NewCircuitBreaker создаёт брейкер в закрытом состоянии.
func NewCircuitBreaker(cfg BreakerConfig, logger *log.Entry) *CircuitBreaker {
	if logger == nil {
		logger = log.New().WithField("component", "availability-breaker")
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultBreakerConfig().Window
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = DefaultBreakerConfig().MinRequests
	}
	if cfg.FailureRate <= 0 {
		cfg.FailureRate = DefaultBreakerConfig().FailureRate
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = DefaultBreakerConfig().OpenFor
	}

	return &CircuitBreaker{
		cfg:    cfg,
		logger: logger,
		state:  CircuitClosed,
		now:    time.Now,
	}
}

// Execute выполняет операцию через брейкер.
func (cb *CircuitBreaker) Execute(operation string, fn func() error) error {
	if err := cb.allow(operation); err != nil {
		return err
	}

	err := fn()
	cb.record(operation, err != nil)
	return err
}

// State возвращает текущее состояние (для метрик и тестов).
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow(operation string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.OpenFor {
			return ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
		cb.probing = true
		cb.logger.WithField("operation", operation).Info("circuit breaker half-open, probing")
		return nil
	case CircuitHalfOpen:
		// Пока пробный вызов в полёте, остальные замкнуты.
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(operation string, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	if cb.state == CircuitHalfOpen {
		cb.probing = false
		if failed {
			cb.state = CircuitOpen
			cb.openedAt = now
			cb.logger.WithField("operation", operation).Warn("probe failed, circuit breaker re-opened")
		} else {
			cb.state = CircuitClosed
			cb.outcomes = nil
			cb.logger.WithField("operation", operation).Info("circuit breaker closed")
		}
		return
	}

	cb.outcomes = append(cb.outcomes, outcome{at: now, failed: failed})
	cb.trim(now)

	total := len(cb.outcomes)
	if total < cb.cfg.MinRequests {
		return
	}
	failures := 0
	for _, o := range cb.outcomes {
		if o.failed {
			failures++
		}
	}
	if float64(failures)/float64(total) >= cb.cfg.FailureRate {
		cb.state = CircuitOpen
		cb.openedAt = now
		cb.outcomes = nil
		cb.logger.WithFields(log.Fields{
			"operation": operation,
			"failures":  failures,
			"total":     total,
		}).Warn("circuit breaker opened")
	}
}

func (cb *CircuitBreaker) trim(now time.Time) {
	cutoff := now.Add(-cb.cfg.Window)
	idx := 0
	for idx < len(cb.outcomes) && cb.outcomes[idx].at.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		cb.outcomes = append(cb.outcomes[:0], cb.outcomes[idx:]...)
	}
}
