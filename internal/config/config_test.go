package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	billing "kitchen-billing/internal/billing/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BILLING_CONFIG", "")
	t.Setenv("PRICE_PENSIONER", "")
	t.Setenv("BILLING_CHARGE_ONLY_POLICY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	table, err := cfg.PriceTable()
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if !table.Pensioner.Equal(decimal.RequireFromString("4.50")) || !table.DeliverySurcharge.Equal(decimal.RequireFromString("3.50")) {
		t.Fatalf("unexpected default prices: %+v", table)
	}
	if policy, _ := cfg.ChargeOnlyPolicy(); policy != billing.ChargeOnlyOmit {
		t.Fatalf("expected omit policy, got %q", policy)
	}
	tag, err := cfg.LocaleTag()
	if err != nil || tag != language.MustParse("de-AT") {
		t.Fatalf("unexpected locale %v %v", tag, err)
	}
}

func TestLoadYAMLOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.yaml")
	content := `
organization: "Schulküche St. Georgen"
currency: EUR
prices:
  pensioner: "4,80"
  delivery_surcharge: "3.70"
billing:
  charge_only_policy: include
schedule:
  enabled: true
  daily_at: "05:15"
  day_of_month: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BILLING_CONFIG", path)
	t.Setenv("PRICE_PENSIONER", "9.99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	table, err := cfg.PriceTable()
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if !table.Pensioner.Equal(decimal.RequireFromString("4.80")) || !table.ChildGroup.Equal(decimal.RequireFromString("2.90")) {
		t.Fatalf("unexpected prices: %+v", table)
	}
	if cfg.Organization != "Schulküche St. Georgen" || cfg.Schedule.DailyAt != "05:15" || cfg.Schedule.DayOfMonth != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if policy, _ := cfg.ChargeOnlyPolicy(); policy != billing.ChargeOnlyInclude {
		t.Fatalf("expected include policy, got %q", policy)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{Locale: "de-AT", Currency: "EUR", Prices: PriceConfig{Pensioner: "4.50"}}
	if err := base.Validate(); err != nil {
		t.Fatalf("base: %v", err)
	}

	bad := base
	bad.Currency = "EURO"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected currency error")
	}

	bad = base
	bad.Prices.DeliverySurcharge = "-1"
	if err := bad.Validate(); !errors.Is(err, billing.ErrNegativePrice) {
		t.Fatalf("expected ErrNegativePrice, got %v", err)
	}

	bad = base
	bad.Prices.ChildGroup = "zwei"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected price parse error")
	}

	bad = base
	bad.Billing.ChargeOnlyPolicy = "maybe"
	if err := bad.Validate(); !errors.Is(err, billing.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}

	bad = base
	bad.Schedule = ScheduleConfig{Enabled: true, DayOfMonth: 31}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected schedule error")
	}
}
