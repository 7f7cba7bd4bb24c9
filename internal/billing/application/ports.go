package application

import (
	"context"
	"time"

	billing "kitchen-billing/internal/billing/domain"
	masterdata "kitchen-billing/internal/masterdata/domain"
	ordering "kitchen-billing/internal/ordering/domain"
)

// PersonReader resolves persons in one batch. Unknown ids are absent from the result.
type PersonReader interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]masterdata.Person, error)
}

// OrderReader loads the orders dated from <= date < to.
type OrderReader interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]ordering.MealOrder, error)
}

// ChargeReader loads the additional charges of a month.
type ChargeReader interface {
	ListForMonth(ctx context.Context, month time.Time) ([]ordering.AdditionalCharge, error)
}

// PriceProvider returns the prices in effect for a month.
type PriceProvider interface {
	PricesFor(ctx context.Context, period billing.Period) (billing.PriceTable, error)
}

// MonthlyComputer produces the billing rows of a month.
type MonthlyComputer interface {
	ComputeMonthly(ctx context.Context, year, month int) ([]billing.BillingRow, error)
}
