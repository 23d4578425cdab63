package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	healthcheck "github.com/vladislavdragonenkov/food-oms/internal/health"
)

func testLogger() *log.Entry {
	return log.New().WithField("component", "test")
}

func TestBuildDependencies_MemoryDriver(t *testing.T) {
	viper.Set("storage.driver", "memory")
	viper.Set("redis.addr", "")
	viper.Set("kafka.brokers", "")
	viper.Set("availability.base_url", "http://localhost:8081")
	t.Cleanup(viper.Reset)

	deps, err := buildDependencies(context.Background(), testLogger(), healthcheck.NewHandler(""))
	if err != nil {
		t.Fatalf("build dependencies: %v", err)
	}
	t.Cleanup(func() { deps.close(testLogger()) })

	if deps.orders == nil {
		t.Fatal("orders repository must be initialized")
	}
	if deps.payments == nil {
		t.Fatal("payment gateway must be initialized")
	}
	if deps.availability == nil {
		t.Fatal("availability client must be initialized")
	}
	// Без брокеров publisher остаётся пустым, события не публикуются.
	if deps.publisher != nil {
		t.Fatal("publisher must be nil without kafka brokers")
	}
	if deps.store != nil || deps.redisClient != nil || deps.kafkaProducer != nil {
		t.Fatal("no external resources expected for memory-only setup")
	}
}

func TestBuildDependencies_UnsupportedDriver(t *testing.T) {
	viper.Set("storage.driver", "cassandra")
	t.Cleanup(viper.Reset)

	if _, err := buildDependencies(context.Background(), testLogger(), healthcheck.NewHandler("")); err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}
