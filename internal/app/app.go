package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	billingapp "kitchen-billing/internal/billing/application"
	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/billing/infrastructure/memory"
	"kitchen-billing/internal/billing/infrastructure/pricing"
	billinginterfaces "kitchen-billing/internal/billing/interfaces"
	"kitchen-billing/internal/config"
	masterdata "kitchen-billing/internal/masterdata/domain"
	masterdatarepo "kitchen-billing/internal/masterdata/infrastructure/postgres"
	ordering "kitchen-billing/internal/ordering/domain"
	orderingrepo "kitchen-billing/internal/ordering/infrastructure/postgres"
)

// Repositories groups the stores the billing engine reads from.
type Repositories struct {
	Persons masterdata.PersonRepository
	Orders  ordering.OrderRepository
	Charges ordering.ChargeRepository
}

// PostgresRepositories wires the Postgres stores.
func PostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Persons: masterdatarepo.NewPersonRepository(db),
		Orders:  orderingrepo.NewOrderRepository(db),
		Charges: orderingrepo.NewChargeRepository(db),
	}
}

// MemoryRepositories wires the in-memory stores.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Persons: store.Persons(),
		Orders:  store.Orders(),
		Charges: store.Charges(),
	}
}

// NewPriceProvider returns the configured fixed prices, or the price plan
// table with the fixed prices as fallback when plans are enabled and db is set.
func NewPriceProvider(cfg config.Config, db *sql.DB) (billingapp.PriceProvider, error) {
	table, err := cfg.PriceTable()
	if err != nil {
		return nil, err
	}
	fixed, err := pricing.NewFixedPriceProvider(table)
	if err != nil {
		return nil, err
	}
	if !cfg.Prices.UsePlans || db == nil {
		return fixed, nil
	}
	plans, err := pricing.NewPlanPriceProvider(db, fixed)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// NewAggregator builds the monthly aggregator from configuration.
func NewAggregator(cfg config.Config, repos Repositories, prices billingapp.PriceProvider, logger *log.Logger) (*billingapp.Aggregator, error) {
	policy, err := cfg.ChargeOnlyPolicy()
	if err != nil {
		return nil, err
	}
	locale, err := cfg.LocaleTag()
	if err != nil {
		return nil, err
	}
	return billingapp.NewAggregator(repos.Persons, repos.Orders, repos.Charges, prices,
		billingapp.WithChargeOnlyPolicy(policy),
		billingapp.WithLocale(locale),
		billingapp.WithLogger(logger),
	)
}

// NewReporter builds the reporter with the PDF, XLSX and CSV renderers.
func NewReporter(cfg config.Config, computer billingapp.MonthlyComputer, logger *log.Logger) (*billingapp.Reporter, error) {
	locale, err := cfg.LocaleTag()
	if err != nil {
		return nil, err
	}
	money, err := billinginterfaces.NewMoneyFormatter(locale, cfg.Currency)
	if err != nil {
		return nil, err
	}
	return billingapp.NewReporter(computer, cfg.Organization, logger,
		billinginterfaces.NewPDFRenderer(money),
		billinginterfaces.NewXLSXRenderer(),
		billinginterfaces.NewCSVRenderer(),
	)
}

// SeedDemo fills store with a small set of persons, orders and charges for period.
func SeedDemo(ctx context.Context, store *memory.Store, period billing.Period) error {
	if store == nil {
		return errors.New("app: nil store")
	}
	override := decimal.RequireFromString("5.20")
	persons := []masterdata.Person{
		{Name: "Anna Öller", Street: "Hauptstraße", HouseNumber: "3", Zip: "4020", City: "Linz", Category: masterdata.CategoryPensioner, DefaultDelivery: true, DefaultMealQuantity: 1},
		{Name: "Josef Bauer", Street: "Kirchengasse", HouseNumber: "8", Zip: "4020", City: "Linz", Category: masterdata.CategoryPensioner, MealPriceOverride: &override, DefaultMealQuantity: 1},
		{Name: "Kindergruppe Sonnenschein", Street: "Schulweg", HouseNumber: "1", Zip: "4040", City: "Linz", Category: masterdata.CategoryChildGroup},
		{Name: "Pfarrcaritas", City: "Linz", Category: masterdata.CategoryFreeMeal},
	}
	for i := range persons {
		if err := store.Persons().Create(ctx, &persons[i]); err != nil {
			return fmt.Errorf("app: seed person %s: %w", persons[i].Name, err)
		}
	}

	for day := period.Start(); day.Before(period.End()); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		orders := []ordering.MealOrder{
			{Date: day, PersonID: persons[0].ID, Quantity: 1, Delivery: true},
			{Date: day, PersonID: persons[1].ID, Quantity: 1},
			{Date: day, PersonID: persons[2].ID, Quantity: 12},
		}
		if day.Weekday() == time.Friday {
			orders = append(orders, ordering.MealOrder{Date: day, PersonID: persons[3].ID, Quantity: 2})
		}
		if err := store.Orders().UpsertRange(ctx, day, orders); err != nil {
			return fmt.Errorf("app: seed orders %s: %w", day.Format("2006-01-02"), err)
		}
	}

	charge := ordering.AdditionalCharge{
		PersonID:    persons[0].ID,
		Month:       period.Start(),
		Description: "Getränke",
		UnitPrice:   decimal.RequireFromString("1.50"),
		Quantity:    4,
	}
	if err := store.Charges().Create(ctx, &charge); err != nil {
		return fmt.Errorf("app: seed charge: %w", err)
	}
	return nil
}
