package interfaces

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	billing "kitchen-billing/internal/billing/domain"
)

// MoneyFormatter prints amounts with the locale's separators and a currency sign.
type MoneyFormatter struct {
	printer *message.Printer
	symbol  string
}

// NewMoneyFormatter constructs a formatter for locale and an ISO 4217 currency code.
func NewMoneyFormatter(locale language.Tag, currencyCode string) (*MoneyFormatter, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
	if err != nil {
		return nil, fmt.Errorf("money formatter: %w", err)
	}
	symbol := unit.String()
	if unit == currency.EUR {
		symbol = "€"
	}
	return &MoneyFormatter{printer: message.NewPrinter(locale), symbol: symbol}, nil
}

// DefaultMoneyFormatter formats euros the Austrian way.
func DefaultMoneyFormatter() *MoneyFormatter {
	return &MoneyFormatter{printer: message.NewPrinter(language.MustParse("de-AT")), symbol: "€"}
}

// Amount formats value rounded to the minor unit, e.g. "107,50".
func (f *MoneyFormatter) Amount(value decimal.Decimal) string {
	return f.printer.Sprintf("%.2f", billing.RoundMoney(value).InexactFloat64())
}

// Money formats value with the currency sign, e.g. "107,50 €".
func (f *MoneyFormatter) Money(value decimal.Decimal) string {
	return f.Amount(value) + " " + f.symbol
}

// Integer formats a count with the locale's grouping.
func (f *MoneyFormatter) Integer(value int) string {
	return f.printer.Sprintf("%d", value)
}

func (f *MoneyFormatter) valid() error {
	if f == nil || f.printer == nil {
		return errors.New("money formatter: not initialized")
	}
	return nil
}
