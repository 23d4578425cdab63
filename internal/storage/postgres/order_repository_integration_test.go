package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// Интеграционные тесты выполняются только при заданном DSN:
// FOODOMS_POSTGRES_TEST_DSN=postgres://... go test ./internal/storage/postgres/
func openStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("FOODOMS_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("FOODOMS_POSTGRES_TEST_DSN is not set, skipping postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if _, err := store.DB().ExecContext(ctx, `TRUNCATE order_items, orders`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return store
}

func integrationOrder(idemKey string) domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Order{
		ID:           uuid.NewString(),
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Status:       domain.OrderStatusCreated,
		Items: []domain.OrderItem{
			{MenuItemID: "menu-1", Name: "Pizza", Qty: 2, PriceMinor: 1000},
			{MenuItemID: "menu-2", Name: "Cola", Qty: 1, PriceMinor: 300},
		},
		IdempotencyKey: idemKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestIntegration_CreateAndGet(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := integrationOrder("")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.OrderStatusCreated || got.TotalMinor() != 2300 {
		t.Fatalf("unexpected stored order: %+v", got)
	}
	if len(got.Items) != 2 || got.Items[0].MenuItemID != "menu-1" {
		t.Fatalf("items not preserved in order: %+v", got.Items)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestIntegration_IdempotencyKeyUnique(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	first := integrationOrder("integration-key")
	if err := repo.Create(first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := integrationOrder("integration-key")
	err := repo.Create(second)
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
	var conflict *domain.IdempotencyConflictError
	if !errors.As(err, &conflict) || conflict.ExistingOrderID != first.ID {
		t.Fatalf("conflict must reference first order, got %+v", conflict)
	}

	found, err := repo.FindByIdempotencyKey("integration-key")
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if found.ID != first.ID {
		t.Fatalf("expected first order, got %s", found.ID)
	}
}

func TestIntegration_EmptyKeysDoNotCollide(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	for i := 0; i < 3; i++ {
		if err := repo.Create(integrationOrder("")); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
}

func TestIntegration_CompareAndUpdateStatus(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := integrationOrder("")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := repo.CompareAndUpdateStatus(order.ID, domain.OrderStatusCreated, domain.OrderStatusPaymentPending, "pay_1")
	if err != nil {
		t.Fatalf("cas: %v", err)
	}
	if updated.Status != domain.OrderStatusPaymentPending || updated.PaymentID != "pay_1" {
		t.Fatalf("unexpected updated order: %+v", updated)
	}

	// Устаревший expected отклоняется с фактическим статусом в ошибке.
	_, err = repo.CompareAndUpdateStatus(order.ID, domain.OrderStatusCreated, domain.OrderStatusCancelled, "")
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	var transition *domain.InvalidTransitionError
	if !errors.As(err, &transition) || transition.From != domain.OrderStatusPaymentPending {
		t.Fatalf("unexpected transition error: %+v", transition)
	}

	// Пустой paymentID не затирает существующий.
	updated, err = repo.CompareAndUpdateStatus(order.ID, domain.OrderStatusPaymentPending, domain.OrderStatusCancelled, "")
	if err != nil {
		t.Fatalf("cas cancel: %v", err)
	}
	if updated.PaymentID != "pay_1" {
		t.Fatalf("payment id must be preserved, got %q", updated.PaymentID)
	}
}

func TestIntegration_ListPagination(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	for i := 0; i < 5; i++ {
		order := integrationOrder("")
		order.CreatedAt = order.CreatedAt.Add(time.Duration(i) * time.Second)
		order.UpdatedAt = order.CreatedAt
		order.ID = fmt.Sprintf("order-%d", i)
		if err := repo.Create(order); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := repo.ListByCustomer("customer-1", domain.Page{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(page))
	}
	// Новые раньше старых: offset 1 пропускает order-4.
	if page[0].ID != "order-3" || page[1].ID != "order-2" {
		t.Fatalf("unexpected page order: %s, %s", page[0].ID, page[1].ID)
	}

	byRestaurant, err := repo.ListByRestaurant("restaurant-1", domain.Page{Limit: 10})
	if err != nil {
		t.Fatalf("list by restaurant: %v", err)
	}
	if len(byRestaurant) != 5 {
		t.Fatalf("expected 5 orders, got %d", len(byRestaurant))
	}
}
