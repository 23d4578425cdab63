package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	idempotencyKeyConstraint = "orders_idempotency_key_key"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Уникальность idempotency-key обеспечивается уникальным индексом: гонку
// конкурентных Create с одним ключом разрешает сама база.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, restaurant_id, status, payment_id, idempotency_key, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		order.ID, order.CustomerID, order.RestaurantID, string(order.Status),
		order.PaymentID, nullableKey(order.IdempotencyKey), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, idempotencyKeyConstraint) {
			return r.idempotencyConflict(ctx, order.IdempotencyKey)
		}
		if isUniqueViolation(err, "") {
			return domain.ErrOrderAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for pos, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, position, menu_item_id, name, qty, price_minor
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			order.ID, pos, item.MenuItemID, item.Name, item.Qty, item.PriceMinor,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getWhere(ctx, "id = $1", id)
}

func (r *orderRepository) FindByIdempotencyKey(key string) (domain.Order, error) {
	if key == "" {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getWhere(ctx, "idempotency_key = $1", key)
}

// CompareAndUpdateStatus переводит заказ из expected в next одним условным
// UPDATE. Нулевые affected rows означают либо отсутствие заказа, либо
// проигранную гонку статусов: во втором случае возвращается фактический статус.
func (r *orderRepository) CompareAndUpdateStatus(id string, expected, next domain.OrderStatus, paymentID string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    payment_id = COALESCE(NULLIF($2, ''), payment_id),
		    updated_at = $3
		WHERE id = $4
		  AND status = $5
	`, string(next), paymentID, time.Now().UTC(), id, string(expected))
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, getErr := r.getWhere(ctx, "id = $1", id)
		if getErr != nil {
			return domain.Order{}, getErr
		}
		return domain.Order{}, &domain.InvalidTransitionError{From: current.Status, To: next}
	}

	return r.getWhere(ctx, "id = $1", id)
}

func (r *orderRepository) ListByCustomer(customerID string, page domain.Page) ([]domain.Order, error) {
	return r.listWhere("customer_id = $1", customerID, page)
}

func (r *orderRepository) ListByRestaurant(restaurantID string, page domain.Page) ([]domain.Order, error) {
	return r.listWhere("restaurant_id = $1", restaurantID, page)
}

func (r *orderRepository) getWhere(ctx context.Context, cond string, arg any) (domain.Order, error) {
	var (
		order  domain.Order
		status string
		idem   sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, restaurant_id, status, payment_id, idempotency_key, created_at, updated_at
		FROM orders
		WHERE `+cond, arg).Scan(
		&order.ID, &order.CustomerID, &order.RestaurantID, &status,
		&order.PaymentID, &idem, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.IdempotencyKey = idem.String

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) listWhere(cond string, arg any, page domain.Page) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, customer_id, restaurant_id, status, payment_id, idempotency_key, created_at, updated_at
		FROM orders
		WHERE `)
	sb.WriteString(cond)
	sb.WriteString(`
		ORDER BY created_at DESC, id DESC`)

	args := []any{arg}
	if page.Limit > 0 {
		args = append(args, page.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order  domain.Order
			status string
			idem   sql.NullString
		)
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.RestaurantID, &status,
			&order.PaymentID, &idem, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		order.IdempotencyKey = idem.String

		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT menu_item_id, name, qty, price_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.Qty, &item.PriceMinor); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// idempotencyConflict превращает нарушение уникального индекса в ошибку с
// идентификатором существующего заказа.
func (r *orderRepository) idempotencyConflict(ctx context.Context, key string) error {
	existing, err := r.getWhere(ctx, "idempotency_key = $1", key)
	if err != nil {
		// Конфликт был, но победитель ещё не виден; отдаём конфликт без ID.
		return &domain.IdempotencyConflictError{Key: key}
	}
	return &domain.IdempotencyConflictError{Key: key, ExistingOrderID: existing.ID}
}

func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}

// isUniqueViolation сообщает о нарушении уникальности; при непустом constraint
// дополнительно сверяет имя нарушенного индекса.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

var _ domain.OrderRepository = (*orderRepository)(nil)
