package billing

import (
	"github.com/shopspring/decimal"

	masterdata "kitchen-billing/internal/masterdata/domain"
)

// Totals sums a set of rows.
type Totals struct {
	Rows              int
	Quantity          int
	Deliveries        int
	MealAmount        decimal.Decimal
	DeliveryAmount    decimal.Decimal
	AdditionalCharges decimal.Decimal
	Total             decimal.Decimal
}

func (t *Totals) add(row BillingRow) {
	t.Rows++
	t.Quantity += row.Quantity
	t.Deliveries += row.DeliveryCount
	t.MealAmount = t.MealAmount.Add(row.MealAmount())
	t.DeliveryAmount = t.DeliveryAmount.Add(row.DeliveryAmount())
	t.AdditionalCharges = t.AdditionalCharges.Add(row.AdditionalCharges)
	t.Total = t.Total.Add(row.Total)
}

func (t *Totals) merge(other Totals) {
	t.Rows += other.Rows
	t.Quantity += other.Quantity
	t.Deliveries += other.Deliveries
	t.MealAmount = t.MealAmount.Add(other.MealAmount)
	t.DeliveryAmount = t.DeliveryAmount.Add(other.DeliveryAmount)
	t.AdditionalCharges = t.AdditionalCharges.Add(other.AdditionalCharges)
	t.Total = t.Total.Add(other.Total)
}

// Section groups the rows of one category.
type Section struct {
	Category masterdata.Category
	Title    string
	Rows     []BillingRow
	Totals   Totals
}

// Report is the monthly collective invoice.
type Report struct {
	Organization string
	Period       Period
	Sections     []Section
	Totals       Totals
}

// Title returns the report heading, e.g. "Sammelabrechnung Jänner 2026".
func (r Report) Title() string {
	return "Sammelabrechnung " + r.Period.Title()
}

// Empty reports whether the month has no rows.
func (r Report) Empty() bool {
	return len(r.Sections) == 0
}

// SectionTitle returns the printed heading of a category.
func SectionTitle(category masterdata.Category) string {
	switch category {
	case masterdata.CategoryPensioner:
		return "Pensionisten"
	case masterdata.CategoryChildGroup:
		return "Kindergruppe"
	case masterdata.CategoryFreeMeal:
		return "Gratis"
	default:
		return string(category)
	}
}

// BuildReport partitions rows into category sections in the fixed order
// pensioner, child group, free meal. Row order within a section is kept and
// sections without rows are omitted.
func BuildReport(period Period, rows []BillingRow, organization string) Report {
	report := Report{Organization: organization, Period: period}
	for _, category := range masterdata.Categories() {
		section := Section{Category: category, Title: SectionTitle(category)}
		for _, row := range rows {
			if row.Category != category {
				continue
			}
			section.Rows = append(section.Rows, row)
			section.Totals.add(row)
		}
		if len(section.Rows) == 0 {
			continue
		}
		report.Sections = append(report.Sections, section)
		report.Totals.merge(section.Totals)
	}
	return report
}
