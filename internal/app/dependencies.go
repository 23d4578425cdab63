package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/food-oms/internal/health"
	"github.com/vladislavdragonenkov/food-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/food-oms/internal/service/payment"
	"github.com/vladislavdragonenkov/food-oms/internal/service/restaurant"
	"github.com/vladislavdragonenkov/food-oms/internal/storage/memory"
	"github.com/vladislavdragonenkov/food-oms/internal/storage/postgres"
)

// dependencies — собранный граф зависимостей сервиса. Closeables закрываются
// в обратном порядке при остановке.
type dependencies struct {
	orders       domain.OrderRepository
	payments     domain.PaymentGateway
	availability domain.AvailabilityClient
	publisher    domain.EventPublisher

	store         *postgres.Store
	redisClient   *redis.Client
	kafkaProducer *kafka.Producer
}

// buildDependencies поднимает хранилище, клиентов и publisher согласно viper-конфигурации.
func buildDependencies(ctx context.Context, logger *log.Entry, healthHandler *healthcheck.Handler) (*dependencies, error) {
	deps := &dependencies{}

	if err := initStorage(ctx, deps, logger, healthHandler); err != nil {
		return nil, err
	}

	deps.payments = payment.NewGateway(
		logger.WithField("component", "payment-gateway"),
		payment.WithFailureRate(viper.GetFloat64("payment.failure_rate")),
		payment.WithLatency(viper.GetDuration("payment.latency")),
	)

	initAvailability(ctx, deps, logger, healthHandler)
	initPublisher(deps, logger)

	return deps, nil
}

func initStorage(ctx context.Context, deps *dependencies, logger *log.Entry, healthHandler *healthcheck.Handler) error {
	driver := strings.ToLower(strings.TrimSpace(viper.GetString("storage.driver")))
	switch driver {
	case "", "memory":
		logger.Info("using in-memory order storage")
		deps.orders = memory.NewOrderRepository()
	case "postgres":
		dsn := viper.GetString("storage.postgres.dsn")
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("using postgres order storage")
		deps.store = store
		deps.orders = postgres.NewOrderRepository(store)
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return store.Ping(context.Background())
		}))
	default:
		return fmt.Errorf("unsupported storage driver: %s", driver)
	}

	return nil
}

func initAvailability(ctx context.Context, deps *dependencies, logger *log.Entry, healthHandler *healthcheck.Handler) {
	breaker := restaurant.NewCircuitBreaker(
		restaurant.DefaultBreakerConfig(),
		logger.WithField("component", "availability-breaker"),
	)
	client := restaurant.NewClient(
		viper.GetString("availability.base_url"),
		viper.GetDuration("availability.timeout"),
		breaker,
		logger.WithField("component", "availability-client"),
	)
	deps.availability = client

	redisAddr := strings.TrimSpace(viper.GetString("redis.addr"))
	if redisAddr == "" {
		return
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, availability cache disabled")
		_ = redisClient.Close()
		return
	}

	deps.redisClient = redisClient
	deps.availability = restaurant.NewCachedAvailability(
		client,
		redisClient,
		viper.GetDuration("availability.cache_ttl"),
		logger.WithField("component", "availability-cache"),
	)
	healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
		return redisClient.Ping(context.Background()).Err()
	}))
	logger.WithField("addr", redisAddr).Info("availability cache enabled")
}

// initPublisher подключает Kafka, если заданы брокеры. Без брокеров события
// просто не публикуются: доставка событий для саги необязательна.
func initPublisher(deps *dependencies, logger *log.Entry) {
	brokersRaw := strings.TrimSpace(viper.GetString("kafka.brokers"))
	if brokersRaw == "" {
		logger.Info("kafka brokers not configured, events will not be published")
		return
	}

	brokers := strings.Split(brokersRaw, ",")
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return
	}

	deps.kafkaProducer = producer
	deps.publisher = producer
	logger.WithField("brokers", brokers).Info("kafka producer initialized")
}

// close освобождает внешние ресурсы.
func (d *dependencies) close(logger *log.Entry) {
	if d.kafkaProducer != nil {
		if err := d.kafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		}
	}
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
