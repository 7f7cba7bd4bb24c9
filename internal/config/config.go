package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	billing "kitchen-billing/internal/billing/domain"
)

// PriceConfig holds the default meal prices as decimal strings.
type PriceConfig struct {
	Pensioner         string `yaml:"pensioner"`
	ChildGroup        string `yaml:"child_group"`
	FreeMeal          string `yaml:"free_meal"`
	DeliverySurcharge string `yaml:"delivery_surcharge"`
	UsePlans          bool   `yaml:"use_plans"`
}

// BillingConfig holds aggregation settings.
type BillingConfig struct {
	ChargeOnlyPolicy string `yaml:"charge_only_policy"`
}

// ScheduleConfig defines the monthly export schedule.
type ScheduleConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DailyAt    string `yaml:"daily_at"`
	DayOfMonth int    `yaml:"day_of_month"`
	Format     string `yaml:"format"`
}

// Config is the service configuration.
type Config struct {
	DatabaseURL  string         `yaml:"-"`
	JWTSecret    string         `yaml:"-"`
	HTTPAddr     string         `yaml:"http_addr"`
	Organization string         `yaml:"organization"`
	Locale       string         `yaml:"locale"`
	Currency     string         `yaml:"currency"`
	ExportDir    string         `yaml:"export_dir"`
	Prices       PriceConfig    `yaml:"prices"`
	Billing      BillingConfig  `yaml:"billing"`
	Schedule     ScheduleConfig `yaml:"schedule"`
}

// Load reads .env (when present), the environment and the optional YAML file
// named by BILLING_CONFIG. File values win over the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:  getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		JWTSecret:    getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		Organization: getenvDefault("BILLING_ORGANIZATION", "Schulküche"),
		Locale:       getenvDefault("BILLING_LOCALE", "de-AT"),
		Currency:     getenvDefault("BILLING_CURRENCY", "EUR"),
		ExportDir:    getenvDefault("EXPORT_DIR", filepath.FromSlash("var/exports")),
		Prices: PriceConfig{
			Pensioner:         getenvDefault("PRICE_PENSIONER", "4.50"),
			ChildGroup:        getenvDefault("PRICE_CHILD_GROUP", "2.90"),
			FreeMeal:          getenvDefault("PRICE_FREE_MEAL", "0"),
			DeliverySurcharge: getenvDefault("PRICE_DELIVERY_SURCHARGE", "3.50"),
			UsePlans:          getenvBoolDefault("PRICE_PLANS_ENABLED", false),
		},
		Billing: BillingConfig{
			ChargeOnlyPolicy: getenvDefault("BILLING_CHARGE_ONLY_POLICY", string(billing.ChargeOnlyOmit)),
		},
		Schedule: ScheduleConfig{
			Enabled:    getenvBoolDefault("EXPORT_SCHEDULE_ENABLED", false),
			DailyAt:    getenvDefault("EXPORT_DAILY_AT", "06:00"),
			DayOfMonth: getenvIntDefault("EXPORT_DAY_OF_MONTH", 1),
			Format:     getenvDefault("EXPORT_FORMAT", "pdf"),
		},
	}

	if path := os.Getenv("BILLING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = "06:00"
	}
	if cfg.Schedule.Format == "" {
		cfg.Schedule.Format = "pdf"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks locale, currency, prices and policy.
func (c Config) Validate() error {
	if _, err := c.LocaleTag(); err != nil {
		return err
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		return fmt.Errorf("config: invalid currency %q: %w", c.Currency, err)
	}
	if _, err := c.PriceTable(); err != nil {
		return err
	}
	if _, err := c.ChargeOnlyPolicy(); err != nil {
		return err
	}
	if c.Schedule.Enabled && (c.Schedule.DayOfMonth < 1 || c.Schedule.DayOfMonth > 28) {
		return errors.New("config: schedule day_of_month must be between 1 and 28")
	}
	return nil
}

// LocaleTag parses the configured locale.
func (c Config) LocaleTag() (language.Tag, error) {
	tag, err := language.Parse(strings.TrimSpace(c.Locale))
	if err != nil {
		return language.Und, fmt.Errorf("config: invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// PriceTable parses the configured prices.
func (c Config) PriceTable() (billing.PriceTable, error) {
	var (
		table billing.PriceTable
		err   error
	)
	if table.Pensioner, err = parsePrice("pensioner", c.Prices.Pensioner); err != nil {
		return table, err
	}
	if table.ChildGroup, err = parsePrice("child_group", c.Prices.ChildGroup); err != nil {
		return table, err
	}
	if table.FreeMeal, err = parsePrice("free_meal", c.Prices.FreeMeal); err != nil {
		return table, err
	}
	if table.DeliverySurcharge, err = parsePrice("delivery_surcharge", c.Prices.DeliverySurcharge); err != nil {
		return table, err
	}
	return table, table.Validate()
}

// ChargeOnlyPolicy parses the configured policy.
func (c Config) ChargeOnlyPolicy() (billing.ChargeOnlyPolicy, error) {
	return billing.ParseChargeOnlyPolicy(c.Billing.ChargeOnlyPolicy)
}

func parsePrice(name, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(strings.Replace(value, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: invalid price %s=%q", name, value)
	}
	return parsed, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
