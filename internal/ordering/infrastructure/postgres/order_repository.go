package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ordering "kitchen-billing/internal/ordering/domain"
)

const defaultOrdersTable = "meal_orders"

// OrderRepository persists meal orders.
type OrderRepository struct {
	db    *sql.DB
	table string
}

// OrderOption configures the repository.
type OrderOption func(*OrderRepository)

// WithOrderTable overrides the default table name.
func WithOrderTable(table string) OrderOption {
	return func(repo *OrderRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewOrderRepository constructs a repository.
func NewOrderRepository(db *sql.DB, opts ...OrderOption) *OrderRepository {
	repo := &OrderRepository{db: db, table: defaultOrdersTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListBetween returns orders with from <= date < to.
func (r *OrderRepository) ListBetween(ctx context.Context, from, to time.Time) ([]ordering.MealOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, order_date, person_id, quantity, delivery
FROM %s
WHERE order_date >= $1 AND order_date < $2
ORDER BY order_date ASC, person_id ASC`, r.table)
	return r.list(ctx, query, from, to)
}

// ListForDate returns orders for a single date.
func (r *OrderRepository) ListForDate(ctx context.Context, date time.Time) ([]ordering.MealOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, order_date, person_id, quantity, delivery
FROM %s
WHERE order_date = $1
ORDER BY person_id ASC`, r.table)
	return r.list(ctx, query, ordering.DateOf(date))
}

// UpsertRange writes the orders of one date in a single transaction.
// Existing (date, person) records are overwritten.
func (r *OrderRepository) UpsertRange(ctx context.Context, date time.Time, orders []ordering.MealOrder) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	if len(orders) == 0 {
		return nil
	}
	day := ordering.DateOf(date)
	for _, order := range orders {
		if err := order.Validate(); err != nil {
			return err
		}
		if !ordering.DateOf(order.Date).Equal(day) {
			return ordering.ErrDateMismatch
		}
	}

	query := fmt.Sprintf(`
INSERT INTO %s (order_date, person_id, quantity, delivery)
VALUES ($1, $2, $3, $4)
ON CONFLICT (order_date, person_id)
DO UPDATE SET quantity = EXCLUDED.quantity, delivery = EXCLUDED.delivery, updated_at = NOW()`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if _, err := tx.ExecContext(ctx, query, day, order.PersonID, order.Quantity, order.Delivery); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]ordering.MealOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ordering.MealOrder
	for rows.Next() {
		var order ordering.MealOrder
		if err := rows.Scan(&order.ID, &order.Date, &order.PersonID, &order.Quantity, &order.Delivery); err != nil {
			return nil, err
		}
		order.Date = ordering.DateOf(order.Date)
		result = append(result, order)
	}
	return result, rows.Err()
}
