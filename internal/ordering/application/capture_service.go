package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	masterdata "kitchen-billing/internal/masterdata/domain"
	"kitchen-billing/internal/observability/metrics"
	ordering "kitchen-billing/internal/ordering/domain"
)

// PersonLister lists all persons and resolves persons by id.
type PersonLister interface {
	List(ctx context.Context) ([]masterdata.Person, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]masterdata.Person, error)
}

// SheetEntry is one line of the daily capture sheet.
type SheetEntry struct {
	PersonID int64
	Name     string
	Category masterdata.Category
	Quantity int
	Delivery bool
	Saved    bool
}

// CaptureEntry is one person's submitted order for a date.
type CaptureEntry struct {
	PersonID int64
	Quantity int
	Delivery bool
}

// CaptureService records the daily meal orders.
type CaptureService struct {
	persons PersonLister
	orders  ordering.OrderRepository
	logger  *log.Logger
}

// NewCaptureService constructs a CaptureService.
func NewCaptureService(persons PersonLister, orders ordering.OrderRepository, logger *log.Logger) (*CaptureService, error) {
	if persons == nil {
		return nil, errors.New("capture service: nil person lister")
	}
	if orders == nil {
		return nil, errors.New("capture service: nil order repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CaptureService{persons: persons, orders: orders, logger: logger}, nil
}

// Sheet returns one entry per person for date. Saved orders win over the
// prefill: pensioners get their default meal quantity, everyone else zero,
// and delivery follows the person's default.
func (s *CaptureService) Sheet(ctx context.Context, date time.Time) ([]SheetEntry, error) {
	if date.IsZero() {
		return nil, ordering.ErrInvalidDate
	}
	persons, err := s.persons.List(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := s.orders.ListForDate(ctx, ordering.DateOf(date))
	if err != nil {
		return nil, err
	}
	byPerson := make(map[int64]ordering.MealOrder, len(saved))
	for _, order := range saved {
		byPerson[order.PersonID] = order
	}

	sheet := make([]SheetEntry, 0, len(persons))
	for _, person := range persons {
		entry := SheetEntry{
			PersonID: person.ID,
			Name:     person.Name,
			Category: person.Category,
			Quantity: prefillQuantity(person),
			Delivery: person.DefaultDelivery,
		}
		if order, ok := byPerson[person.ID]; ok {
			entry.Quantity = order.Quantity
			entry.Delivery = order.Delivery
			entry.Saved = true
		}
		sheet = append(sheet, entry)
	}
	return sheet, nil
}

// Save validates and stores the entries for date, replacing earlier values.
func (s *CaptureService) Save(ctx context.Context, date time.Time, entries []CaptureEntry) error {
	err := s.save(ctx, date, entries)
	switch {
	case err == nil:
		metrics.IncOrderCapture(metrics.ResultSuccess)
	case isValidationError(err):
		metrics.IncOrderCapture(metrics.ResultInvalid)
	default:
		metrics.IncOrderCapture(metrics.ResultError)
		s.logger.Printf("order capture failed: date=%s err=%v", ordering.DateOf(date).Format("2006-01-02"), err)
	}
	return err
}

func (s *CaptureService) save(ctx context.Context, date time.Time, entries []CaptureEntry) error {
	if date.IsZero() {
		return ordering.ErrInvalidDate
	}
	if len(entries) == 0 {
		return nil
	}
	day := ordering.DateOf(date)
	ids := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	orders := make([]ordering.MealOrder, 0, len(entries))
	for _, entry := range entries {
		order := ordering.MealOrder{Date: day, PersonID: entry.PersonID, Quantity: entry.Quantity, Delivery: entry.Delivery}
		if err := order.Validate(); err != nil {
			return err
		}
		if _, dup := seen[entry.PersonID]; !dup {
			seen[entry.PersonID] = struct{}{}
			ids = append(ids, entry.PersonID)
		}
		orders = append(orders, order)
	}

	known, err := s.persons.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: id=%d", ordering.ErrUnknownPerson, id)
		}
	}
	return s.orders.UpsertRange(ctx, day, orders)
}

func prefillQuantity(person masterdata.Person) int {
	if person.Category != masterdata.CategoryPensioner {
		return 0
	}
	if person.DefaultMealQuantity < masterdata.DefaultMealQuantity {
		return masterdata.DefaultMealQuantity
	}
	return person.DefaultMealQuantity
}

func isValidationError(err error) bool {
	return errors.Is(err, ordering.ErrInvalidDate) ||
		errors.Is(err, ordering.ErrEmptyPersonID) ||
		errors.Is(err, ordering.ErrNegativeQuantity) ||
		errors.Is(err, ordering.ErrUnknownPerson)
}
