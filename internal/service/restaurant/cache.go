package restaurant

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

const cacheKeyPrefix = "food-oms:availability:"

// CachedAvailability кэширует ответы сервиса доступности в Redis.
// Ошибки кэша не фатальны: запрос уходит в живой клиент, ответ пишется best-effort.
// Владение (IsOwner) не кэшируется.
type CachedAvailability struct {
	next   domain.AvailabilityClient
	client *redis.Client
	ttl    time.Duration
	logger *log.Entry
}

// NewCachedAvailability оборачивает клиента кэшем с заданным TTL.
func NewCachedAvailability(next domain.AvailabilityClient, client *redis.Client, ttl time.Duration, logger *log.Entry) *CachedAvailability {
	if logger == nil {
		logger = log.New().WithField("component", "availability-cache")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &CachedAvailability{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// IsAvailable сначала смотрит в кэш, затем в живой клиент.
func (c *CachedAvailability) IsAvailable(ctx context.Context, restaurantID string) (bool, error) {
	key := cacheKeyPrefix + restaurantID

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}
	if err != redis.Nil {
		c.logger.WithError(err).Debug("availability cache read failed")
	}

	available, err := c.next.IsAvailable(ctx, restaurantID)
	if err != nil {
		return false, err
	}

	value := "0"
	if available {
		value = "1"
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("availability cache write failed")
	}

	return available, nil
}

// IsOwner всегда идёт в живой клиент.
func (c *CachedAvailability) IsOwner(ctx context.Context, restaurantID, userID string) (bool, error) {
	return c.next.IsOwner(ctx, restaurantID, userID)
}

var _ domain.AvailabilityClient = (*CachedAvailability)(nil)
