package billing

import (
	"github.com/shopspring/decimal"

	masterdata "kitchen-billing/internal/masterdata/domain"
)

// MoneyPlaces is the number of minor-unit digits amounts are rounded to.
const MoneyPlaces = 2

// BillingRow is one person's priced summary for a month.
type BillingRow struct {
	PersonID          int64
	Name              string
	Address           string
	Category          masterdata.Category
	UnitPrice         decimal.Decimal
	Quantity          int
	DeliveryCount     int
	DeliverySurcharge decimal.Decimal
	AdditionalCharges decimal.Decimal
	Total             decimal.Decimal
}

// NewBillingRow prices a person's month and computes the total.
func NewBillingRow(person masterdata.Person, prices PriceTable, quantity, deliveries int, charges decimal.Decimal) BillingRow {
	row := BillingRow{
		PersonID:          person.ID,
		Name:              person.Name,
		Address:           person.Address(),
		Category:          person.Category,
		UnitPrice:         prices.UnitPrice(person),
		Quantity:          quantity,
		DeliveryCount:     deliveries,
		DeliverySurcharge: prices.DeliverySurcharge,
		AdditionalCharges: charges,
	}
	row.Total = RoundMoney(row.MealAmount().Add(row.DeliveryAmount()).Add(row.AdditionalCharges))
	return row
}

// MealAmount is unit price times quantity.
func (r BillingRow) MealAmount() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// DeliveryAmount is delivery count times surcharge.
func (r BillingRow) DeliveryAmount() decimal.Decimal {
	return r.DeliverySurcharge.Mul(decimal.NewFromInt(int64(r.DeliveryCount)))
}

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(MoneyPlaces)
}
