package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	billing "kitchen-billing/internal/billing/domain"
)

const defaultPricePlansTable = "price_plans"

// Fallback supplies prices when no plan is effective.
type Fallback interface {
	PricesFor(ctx context.Context, period billing.Period) (billing.PriceTable, error)
}

// PlanPriceProvider resolves the price plan effective for a month: the plan
// with the latest effective_month not after the month's first day.
type PlanPriceProvider struct {
	db         *sql.DB
	fallback   Fallback
	plansTable string
}

// PlanOption configures the provider.
type PlanOption func(*PlanPriceProvider)

// WithPricePlansTable overrides the plans table name.
func WithPricePlansTable(table string) PlanOption {
	return func(p *PlanPriceProvider) {
		if table != "" {
			p.plansTable = table
		}
	}
}

// NewPlanPriceProvider constructs a provider.
func NewPlanPriceProvider(db *sql.DB, fallback Fallback, opts ...PlanOption) (*PlanPriceProvider, error) {
	if db == nil {
		return nil, errors.New("price plan provider: nil db")
	}
	if fallback == nil {
		return nil, errors.New("price plan provider: nil fallback")
	}
	p := &PlanPriceProvider{db: db, fallback: fallback, plansTable: defaultPricePlansTable}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PricesFor returns the effective plan or the fallback table.
func (p *PlanPriceProvider) PricesFor(ctx context.Context, period billing.Period) (billing.PriceTable, error) {
	query := fmt.Sprintf(`
SELECT pensioner_price, child_group_price, free_meal_price, delivery_surcharge
FROM %s
WHERE effective_month <= $1
ORDER BY effective_month DESC
LIMIT 1`, p.plansTable)

	var pensioner, childGroup, free, surcharge decimal.Decimal
	err := p.db.QueryRowContext(ctx, query, period.Start()).Scan(&pensioner, &childGroup, &free, &surcharge)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p.fallback.PricesFor(ctx, period)
		}
		return billing.PriceTable{}, err
	}
	table := billing.PriceTable{
		Pensioner:         pensioner,
		ChildGroup:        childGroup,
		FreeMeal:          free,
		DeliverySurcharge: surcharge,
	}
	if err := table.Validate(); err != nil {
		return billing.PriceTable{}, err
	}
	return table, nil
}
