package integration_test

import (
	"bytes"
	"context"
	"database/sql"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	billingapp "kitchen-billing/internal/billing/application"
	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/billing/infrastructure/pricing"
	billinginterfaces "kitchen-billing/internal/billing/interfaces"
	masterdata "kitchen-billing/internal/masterdata/domain"
	masterdatarepo "kitchen-billing/internal/masterdata/infrastructure/postgres"
	ordering "kitchen-billing/internal/ordering/domain"
	orderingrepo "kitchen-billing/internal/ordering/infrastructure/postgres"
	"kitchen-billing/internal/storage"
)

func TestMonthlyBilling_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	period, _ := billing.NewPeriod(1999, 3)
	_, _ = db.ExecContext(ctx, "DELETE FROM meal_orders WHERE order_date >= $1 AND order_date < $2", period.Start(), period.End())
	_, _ = db.ExecContext(ctx, "DELETE FROM additional_charges WHERE month = $1", period.Start())
	_, _ = db.ExecContext(ctx, "DELETE FROM price_plans WHERE effective_month = $1", period.Start())

	persons := masterdatarepo.NewPersonRepository(db)
	orders := orderingrepo.NewOrderRepository(db)
	charges := orderingrepo.NewChargeRepository(db)

	anna := &masterdata.Person{Name: "IT Anna", Street: "Hauptstraße", HouseNumber: "3", Zip: "4020", City: "Linz", Category: masterdata.CategoryPensioner, DefaultMealQuantity: 1}
	group := &masterdata.Person{Name: "IT Kindergruppe", Category: masterdata.CategoryChildGroup}
	for _, p := range []*masterdata.Person{anna, group} {
		if err := persons.Create(ctx, p); err != nil {
			t.Fatalf("create person: %v", err)
		}
	}
	defer func() {
		_ = persons.Delete(context.Background(), anna.ID)
		_ = persons.Delete(context.Background(), group.ID)
	}()

	day := period.Start()
	if err := orders.UpsertRange(ctx, day, []ordering.MealOrder{
		{Date: day, PersonID: anna.ID, Quantity: 1, Delivery: true},
		{Date: day, PersonID: group.ID, Quantity: 10},
	}); err != nil {
		t.Fatalf("upsert orders: %v", err)
	}
	next := day.AddDate(0, 0, 1)
	if err := orders.UpsertRange(ctx, next, []ordering.MealOrder{
		{Date: next, PersonID: anna.ID, Quantity: 2, Delivery: true},
	}); err != nil {
		t.Fatalf("upsert orders: %v", err)
	}
	if err := charges.Create(ctx, &ordering.AdditionalCharge{
		PersonID:    anna.ID,
		Month:       day.Add(36 * time.Hour),
		Description: "Getränke",
		UnitPrice:   decimal.RequireFromString("2.50"),
		Quantity:    2,
	}); err != nil {
		t.Fatalf("create charge: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO price_plans (effective_month, pensioner_price, child_group_price, free_meal_price, delivery_surcharge)
VALUES ($1, 5.00, 3.00, 0, 3.00)`, period.Start()); err != nil {
		t.Fatalf("insert price plan: %v", err)
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), "DELETE FROM price_plans WHERE effective_month = $1", period.Start())
	}()

	fixed, _ := pricing.NewFixedPriceProvider(billing.DefaultPriceTable())
	plans, err := pricing.NewPlanPriceProvider(db, fixed)
	if err != nil {
		t.Fatalf("plan provider: %v", err)
	}
	logger := log.New(&bytes.Buffer{}, "", 0)
	aggregator, err := billingapp.NewAggregator(persons, orders, charges, plans, billingapp.WithLogger(logger))
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}

	rows, err := aggregator.ComputeMonthly(ctx, period.Year, int(period.Month))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// 3 meals * 5.00 + 2 deliveries * 3.00 + 5.00 charges
	if rows[0].PersonID != anna.ID || !rows[0].Total.Equal(decimal.RequireFromString("26.00")) {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].PersonID != group.ID || !rows[1].Total.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}

	reporter, err := billingapp.NewReporter(aggregator, "Schulküche", logger, billinginterfaces.NewCSVRenderer())
	if err != nil {
		t.Fatalf("reporter: %v", err)
	}
	var buf bytes.Buffer
	if _, err := reporter.ExportMonthly(ctx, period.Year, int(period.Month), "csv", &billingapp.WriterDestination{Writer: &buf}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), "Gesamt;;;;13;2;6.00;5.00;56.00") {
		t.Fatalf("unexpected csv totals:\n%s", buf.String())
	}
}
