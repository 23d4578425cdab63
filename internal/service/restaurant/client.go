package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Client ходит в сервис ресторанов за проверкой доступности и владения.
// Все вызовы идут через circuit breaker: при открытом брейкере ответ
// приходит сразу, без ожидания сети.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *CircuitBreaker
	logger  *log.Entry
}

// NewClient создаёт клиента с per-call таймаутом (по умолчанию 5s).
func NewClient(baseURL string, timeout time.Duration, breaker *CircuitBreaker, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.New().WithField("component", "restaurant-client")
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultBreakerConfig(), logger)
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// IsAvailable сообщает, открыт ли ресторан. Таймаут и транспортная ошибка
// для вызывающей стороны неотличимы от явного "недоступен", но в брейкере
// учитываются как отказы.
func (c *Client) IsAvailable(ctx context.Context, restaurantID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/restaurants/%s/availability", c.baseURL, url.PathEscape(restaurantID))
	return c.getBool(ctx, "is_available", endpoint)
}

// IsOwner сообщает, принадлежит ли ресторан пользователю.
func (c *Client) IsOwner(ctx context.Context, restaurantID, userID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/restaurants/%s/is-owner/%s",
		c.baseURL, url.PathEscape(restaurantID), url.PathEscape(userID))
	return c.getBool(ctx, "is_owner", endpoint)
}

func (c *Client) getBool(ctx context.Context, operation, endpoint string) (bool, error) {
	var result bool

	err := c.breaker.Execute(operation, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call restaurant service: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("restaurant service returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		c.logger.WithError(err).WithField("operation", operation).Warn("availability call failed")
		return false, err
	}

	return result, nil
}

var _ domain.AvailabilityClient = (*Client)(nil)
