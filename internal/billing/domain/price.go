package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	masterdata "kitchen-billing/internal/masterdata/domain"
)

// PriceTable holds the per-category meal prices and the flat delivery surcharge
// in effect for a month.
type PriceTable struct {
	Pensioner         decimal.Decimal
	ChildGroup        decimal.Decimal
	FreeMeal          decimal.Decimal
	DeliverySurcharge decimal.Decimal
}

// DefaultPriceTable returns the built-in prices.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		Pensioner:         decimal.RequireFromString("4.50"),
		ChildGroup:        decimal.RequireFromString("2.90"),
		FreeMeal:          decimal.Zero,
		DeliverySurcharge: decimal.RequireFromString("3.50"),
	}
}

// Validate rejects negative amounts.
func (t PriceTable) Validate() error {
	for name, value := range map[string]decimal.Decimal{
		"pensioner":          t.Pensioner,
		"child_group":        t.ChildGroup,
		"free_meal":          t.FreeMeal,
		"delivery_surcharge": t.DeliverySurcharge,
	} {
		if value.IsNegative() {
			return fmt.Errorf("%w: %s=%s", ErrNegativePrice, name, value)
		}
	}
	return nil
}

// CategoryPrice returns the default unit price of a category, zero for unknown ones.
func (t PriceTable) CategoryPrice(category masterdata.Category) decimal.Decimal {
	switch category {
	case masterdata.CategoryPensioner:
		return t.Pensioner
	case masterdata.CategoryChildGroup:
		return t.ChildGroup
	case masterdata.CategoryFreeMeal:
		return t.FreeMeal
	default:
		return decimal.Zero
	}
}

// UnitPrice resolves a person's meal price: override first, then category default.
func (t PriceTable) UnitPrice(person masterdata.Person) decimal.Decimal {
	if person.MealPriceOverride != nil {
		return *person.MealPriceOverride
	}
	return t.CategoryPrice(person.Category)
}
