package ordering

import (
	"context"
	"time"
)

// MealOrder is the number of meals a person receives on a date.
type MealOrder struct {
	ID       int64
	Date     time.Time
	PersonID int64
	Quantity int
	Delivery bool
}

// Validate checks order invariants.
func (o MealOrder) Validate() error {
	if o.Date.IsZero() {
		return ErrInvalidDate
	}
	if o.PersonID <= 0 {
		return ErrEmptyPersonID
	}
	if o.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// DateOf truncates t to a UTC calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// OrderRepository persists meal orders.
type OrderRepository interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]MealOrder, error)
	ListForDate(ctx context.Context, date time.Time) ([]MealOrder, error)
	UpsertRange(ctx context.Context, date time.Time, orders []MealOrder) error
}
