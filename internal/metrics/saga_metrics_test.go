package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := g.Write(metric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewSagaMetrics(t *testing.T) {
	metrics := newSagaMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newSagaMetricsWithRegisterer should not return nil")
	}
	if metrics.ordersCreated == nil {
		t.Error("ordersCreated counter should not be nil")
	}
	if metrics.paymentsFailed == nil {
		t.Error("paymentsFailed counter should not be nil")
	}
	if metrics.ordersCancelled == nil {
		t.Error("ordersCancelled counter should not be nil")
	}
	if metrics.refundsFailed == nil {
		t.Error("refundsFailed counter should not be nil")
	}
	if metrics.idempotencyConflicts == nil {
		t.Error("idempotencyConflicts counter should not be nil")
	}
	if metrics.eventsPublished == nil {
		t.Error("eventsPublished counter should not be nil")
	}
	if metrics.createDuration == nil {
		t.Error("createDuration histogram should not be nil")
	}
	if metrics.stepDuration == nil {
		t.Error("stepDuration histogram vec should not be nil")
	}
	if metrics.activeSagas == nil {
		t.Error("activeSagas gauge should not be nil")
	}
}

func TestNewSagaMetrics_DoubleRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newSagaMetricsWithRegisterer(reg)
	second := newSagaMetricsWithRegisterer(reg)

	first.RecordOrderCreated()
	second.RecordOrderCreated()

	// Оба экземпляра пишут в один collector.
	if got := counterValue(t, first.ordersCreated); got != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", got)
	}
}

func TestRecordCounters(t *testing.T) {
	metrics := newSagaMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderCreated()
	metrics.RecordOrderCreated()
	metrics.RecordPaymentFailed()
	metrics.RecordOrderCancelled()
	metrics.RecordRefundFailed()
	metrics.RecordIdempotencyConflict()
	metrics.RecordEventPublished()

	if got := counterValue(t, metrics.ordersCreated); got != 2.0 {
		t.Errorf("expected ordersCreated 2.0, got %f", got)
	}
	if got := counterValue(t, metrics.paymentsFailed); got != 1.0 {
		t.Errorf("expected paymentsFailed 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.ordersCancelled); got != 1.0 {
		t.Errorf("expected ordersCancelled 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.refundsFailed); got != 1.0 {
		t.Errorf("expected refundsFailed 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.idempotencyConflicts); got != 1.0 {
		t.Errorf("expected idempotencyConflicts 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.eventsPublished); got != 1.0 {
		t.Errorf("expected eventsPublished 1.0, got %f", got)
	}
}

func TestActiveSagasGauge(t *testing.T) {
	metrics := newSagaMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.SagaStarted()
	metrics.SagaStarted()

	if got := gaugeValue(t, metrics.activeSagas); got != 2.0 {
		t.Errorf("expected active sagas 2.0, got %f", got)
	}

	metrics.SagaFinished()

	if got := gaugeValue(t, metrics.activeSagas); got != 1.0 {
		t.Errorf("expected active sagas 1.0, got %f", got)
	}
}

func TestRecordDurations(t *testing.T) {
	metrics := newSagaMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordCreateDuration(150 * time.Millisecond)
	metrics.RecordStepDuration("charge", 20*time.Millisecond)
	metrics.RecordStepDuration("charge", 40*time.Millisecond)

	histMetric := &dto.Metric{}
	if err := metrics.createDuration.Write(histMetric); err != nil {
		t.Fatalf("failed to write histogram: %v", err)
	}
	if histMetric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 create sample, got %d", histMetric.Histogram.GetSampleCount())
	}

	stepMetric := &dto.Metric{}
	observer, err := metrics.stepDuration.GetMetricWithLabelValues("charge")
	if err != nil {
		t.Fatalf("failed to get labeled histogram: %v", err)
	}
	if err := observer.(prometheus.Metric).Write(stepMetric); err != nil {
		t.Fatalf("failed to write step histogram: %v", err)
	}
	if stepMetric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 charge samples, got %d", stepMetric.Histogram.GetSampleCount())
	}
}
