package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics содержит метрики саги оформления заказа.
type SagaMetrics struct {
	// Счётчики исходов createOrder
	ordersCreated  prometheus.Counter
	paymentsFailed prometheus.Counter

	// Счётчики прочих операций
	ordersCancelled      prometheus.Counter
	refundsFailed        prometheus.Counter
	idempotencyConflicts prometheus.Counter
	eventsPublished      prometheus.Counter

	// Гистограммы времени выполнения
	createDuration prometheus.Histogram
	stepDuration   *prometheus.HistogramVec

	// Gauge для активных саг
	activeSagas prometheus.Gauge
}

// NewSagaMetrics создаёт метрики саги на дефолтном registerer.
func NewSagaMetrics() *SagaMetrics {
	return newSagaMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSagaMetricsWithRegisterer(registerer prometheus.Registerer) *SagaMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SagaMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodoms_orders_created_total",
			Help: "Total number of orders durably created",
		}),
		paymentsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodoms_payments_failed_total",
			Help: "Total number of orders that ended in payment_failed after retries",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodoms_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		refundsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodoms_refunds_failed_total",
			Help: "Total number of refunds that failed and were left for out-of-band retry",
		}),
		idempotencyConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodoms_idempotency_conflicts_total",
			Help: "Total number of createOrder calls rejected by idempotency key",
		}),
		eventsPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodoms_order_events_published_total",
			Help: "Total number of lifecycle events handed to the publisher",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "foodoms_create_order_duration_seconds",
			Help:    "Duration of the createOrder saga in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "foodoms_saga_step_duration_seconds",
			Help:    "Duration of individual saga steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		activeSagas: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "foodoms_active_sagas",
			Help: "Number of currently running createOrder sagas",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *SagaMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordPaymentFailed увеличивает счётчик заказов, ушедших в payment_failed.
func (m *SagaMetrics) RecordPaymentFailed() {
	m.paymentsFailed.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *SagaMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordRefundFailed увеличивает счётчик неудавшихся возвратов.
func (m *SagaMetrics) RecordRefundFailed() {
	m.refundsFailed.Inc()
}

// RecordIdempotencyConflict увеличивает счётчик конфликтов идемпотентности.
func (m *SagaMetrics) RecordIdempotencyConflict() {
	m.idempotencyConflicts.Inc()
}

// RecordEventPublished увеличивает счётчик опубликованных событий.
func (m *SagaMetrics) RecordEventPublished() {
	m.eventsPublished.Inc()
}

// RecordCreateDuration записывает длительность createOrder.
func (m *SagaMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает длительность шага саги.
func (m *SagaMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// SagaStarted увеличивает число активных саг.
func (m *SagaMetrics) SagaStarted() {
	m.activeSagas.Inc()
}

// SagaFinished уменьшает число активных саг.
func (m *SagaMetrics) SagaFinished() {
	m.activeSagas.Dec()
}
