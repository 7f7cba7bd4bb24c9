package pricing

import (
	"context"

	billing "kitchen-billing/internal/billing/domain"
)

// FixedPriceProvider returns the same price table for every month.
type FixedPriceProvider struct {
	table billing.PriceTable
}

// NewFixedPriceProvider constructs the provider.
func NewFixedPriceProvider(table billing.PriceTable) (*FixedPriceProvider, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &FixedPriceProvider{table: table}, nil
}

// PricesFor returns the configured table.
func (p *FixedPriceProvider) PricesFor(ctx context.Context, period billing.Period) (billing.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return billing.PriceTable{}, err
	}
	return p.table, nil
}
