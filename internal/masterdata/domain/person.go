package masterdata

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Category classifies a meal recipient and selects its default meal price.
type Category string

const (
	CategoryPensioner  Category = "pensioner"
	CategoryChildGroup Category = "child_group"
	CategoryFreeMeal   Category = "free_meal"
)

const (
	maxNameLength        = 200
	maxStreetLength      = 120
	maxHouseNumberLength = 20
	maxZipLength         = 10
	maxCityLength        = 120
	maxContactLength     = 120

	// DefaultMealQuantity prefills the daily capture for pensioners.
	DefaultMealQuantity = 1
)

// Categories lists all categories in report order.
func Categories() []Category {
	return []Category{CategoryPensioner, CategoryChildGroup, CategoryFreeMeal}
}

// ParseCategory validates a category string.
func ParseCategory(value string) (Category, bool) {
	switch Category(strings.TrimSpace(value)) {
	case CategoryPensioner:
		return CategoryPensioner, true
	case CategoryChildGroup:
		return CategoryChildGroup, true
	case CategoryFreeMeal:
		return CategoryFreeMeal, true
	default:
		return "", false
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Person is a person or group receiving meals.
type Person struct {
	ID                  int64
	Name                string
	Street              string
	HouseNumber         string
	Zip                 string
	City                string
	Contact             string
	Category            Category
	DefaultDelivery     bool
	MealPriceOverride   *decimal.Decimal
	DefaultMealQuantity int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks person invariants.
func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(p.Name) > maxNameLength {
		return ErrFieldTooLong
	}
	for _, field := range []struct {
		value string
		max   int
	}{
		{p.Street, maxStreetLength},
		{p.HouseNumber, maxHouseNumberLength},
		{p.Zip, maxZipLength},
		{p.City, maxCityLength},
		{p.Contact, maxContactLength},
	} {
		if utf8.RuneCountInString(field.value) > field.max {
			return ErrFieldTooLong
		}
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if p.MealPriceOverride != nil && p.MealPriceOverride.IsNegative() {
		return ErrNegativePrice
	}
	if p.DefaultMealQuantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// Address joins "street house-number" and "zip city", skipping empty parts and lines.
func (p Person) Address() string {
	lines := make([]string, 0, 2)
	if line := joinNonEmpty(p.Street, p.HouseNumber); line != "" {
		lines = append(lines, line)
	}
	if line := joinNonEmpty(p.Zip, p.City); line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}

// PersonRepository manages person persistence.
type PersonRepository interface {
	Create(ctx context.Context, person *Person) error
	Update(ctx context.Context, person *Person) error
	Get(ctx context.Context, id int64) (*Person, error)
	List(ctx context.Context) ([]Person, error)
	Delete(ctx context.Context, id int64) error
	GetMany(ctx context.Context, ids []int64) (map[int64]Person, error)
}
