package saga

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryPolicy описывает политику повторов для I/O вызова.
// Явная функция-обёртка вместо декларативных аннотаций: max попыток,
// стартовая задержка, множитель и предикат ретраибельности.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultPaymentRetryPolicy — политика для charge/refund: до 3 попыток,
// экспоненциальный backoff от 100ms с удвоением.
func DefaultPaymentRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Do выполняет fn до MaxAttempts раз, повторяя только ошибки, одобренные
// предикатом retryable. Возвращает последнюю ошибку после исчерпания попыток.
// Задержка между попытками уважает ctx.
func (p RetryPolicy) Do(ctx context.Context, operation string, logger *log.Entry, retryable func(error) bool, fn func() error) error {
	if logger == nil {
		logger = log.New().WithField("component", "retry")
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.WithFields(log.Fields{
					"operation": operation,
					"attempt":   attempt,
				}).Info("operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if retryable != nil && !retryable(err) {
			logger.WithFields(log.Fields{
				"operation": operation,
				"error":     err,
			}).Warn("operation failed with non-retryable error")
			return err
		}

		if attempt < p.MaxAttempts {
			logger.WithFields(log.Fields{
				"operation": operation,
				"attempt":   attempt,
				"delay":     delay,
				"error":     err,
			}).Warn("operation failed, retrying")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

			delay = time.Duration(float64(delay) * p.BackoffFactor)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}

	logger.WithFields(log.Fields{
		"operation":    operation,
		"max_attempts": p.MaxAttempts,
		"error":        lastErr,
	}).Error("operation failed after all retry attempts")

	return lastErr
}
