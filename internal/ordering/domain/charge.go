package ordering

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 200

// AdditionalCharge is a month-scoped, non-meal line item billed to a person.
type AdditionalCharge struct {
	ID          int64
	PersonID    int64
	Month       time.Time
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Amount returns unit price times quantity.
func (c AdditionalCharge) Amount() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Validate checks charge invariants.
func (c AdditionalCharge) Validate() error {
	if c.PersonID <= 0 {
		return ErrEmptyPersonID
	}
	if c.Month.IsZero() {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(c.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if c.UnitPrice.IsNegative() {
		return ErrNegativePrice
	}
	if c.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// MonthKey returns the first day of t's month in UTC.
func MonthKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ChargeRepository persists additional charges.
type ChargeRepository interface {
	Create(ctx context.Context, charge *AdditionalCharge) error
	Update(ctx context.Context, charge *AdditionalCharge) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*AdditionalCharge, error)
	ListForPerson(ctx context.Context, personID int64) ([]AdditionalCharge, error)
	ListForMonth(ctx context.Context, month time.Time) ([]AdditionalCharge, error)
}
