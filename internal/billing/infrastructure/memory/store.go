package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	masterdata "kitchen-billing/internal/masterdata/domain"
	ordering "kitchen-billing/internal/ordering/domain"
)

// Store keeps persons, orders and charges in memory. The repositories it
// hands out share one lock, so deleting a person cascades like the database.
type Store struct {
	mu sync.RWMutex

	persons map[int64]masterdata.Person
	orders  []ordering.MealOrder
	charges map[int64]ordering.AdditionalCharge

	nextPersonID int64
	nextOrderID  int64
	nextChargeID int64

	now func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		persons: make(map[int64]masterdata.Person),
		charges: make(map[int64]ordering.AdditionalCharge),
		now:     time.Now,
	}
}

// Persons returns the person repository view.
func (s *Store) Persons() *PersonRepository { return &PersonRepository{store: s} }

// Orders returns the order repository view.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{store: s} }

// Charges returns the charge repository view.
func (s *Store) Charges() *ChargeRepository { return &ChargeRepository{store: s} }

// PersonRepository is an in-memory masterdata.PersonRepository.
type PersonRepository struct {
	store *Store
}

// Create inserts a person and assigns its id.
func (r *PersonRepository) Create(ctx context.Context, person *masterdata.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := person.Validate(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPersonID++
	now := s.now().UTC()
	person.ID = s.nextPersonID
	person.CreatedAt = now
	person.UpdatedAt = now
	s.persons[person.ID] = clonePerson(*person)
	return nil
}

// Update overwrites a person.
func (r *PersonRepository) Update(ctx context.Context, person *masterdata.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := person.Validate(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.persons[person.ID]
	if !ok {
		return masterdata.ErrPersonNotFound
	}
	person.CreatedAt = existing.CreatedAt
	person.UpdatedAt = s.now().UTC()
	s.persons[person.ID] = clonePerson(*person)
	return nil
}

// Get loads a person. It returns nil when the person does not exist.
func (r *PersonRepository) Get(ctx context.Context, id int64) (*masterdata.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	person, ok := s.persons[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	copy := clonePerson(person)
	return &copy, nil
}

// List returns all persons ordered by name.
func (r *PersonRepository) List(ctx context.Context) ([]masterdata.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	result := make([]masterdata.Person, 0, len(s.persons))
	for _, person := range s.persons {
		result = append(result, clonePerson(person))
	}
	s.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Delete removes a person with its orders and charges.
func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[id]; !ok {
		return masterdata.ErrPersonNotFound
	}
	delete(s.persons, id)
	kept := s.orders[:0]
	for _, order := range s.orders {
		if order.PersonID != id {
			kept = append(kept, order)
		}
	}
	s.orders = kept
	for chargeID, charge := range s.charges {
		if charge.PersonID == id {
			delete(s.charges, chargeID)
		}
	}
	return nil
}

// GetMany resolves persons by id. Unknown ids are absent from the map.
func (r *PersonRepository) GetMany(ctx context.Context, ids []int64) (map[int64]masterdata.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int64]masterdata.Person, len(ids))
	for _, id := range ids {
		if person, ok := s.persons[id]; ok {
			result[id] = clonePerson(person)
		}
	}
	return result, nil
}

// OrderRepository is an in-memory ordering.OrderRepository.
type OrderRepository struct {
	store *Store
}

// ListBetween returns orders with from <= date < to.
func (r *OrderRepository) ListBetween(ctx context.Context, from, to time.Time) ([]ordering.MealOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.filter(func(order ordering.MealOrder) bool {
		return !order.Date.Before(from) && order.Date.Before(to)
	}), nil
}

// ListForDate returns the orders of one date.
func (r *OrderRepository) ListForDate(ctx context.Context, date time.Time) ([]ordering.MealOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day := ordering.DateOf(date)
	return r.filter(func(order ordering.MealOrder) bool {
		return order.Date.Equal(day)
	}), nil
}

// UpsertRange writes the orders of one date, replacing existing (date, person) records.
// Unknown persons are rejected like a foreign key would.
func (r *OrderRepository) UpsertRange(ctx context.Context, date time.Time, orders []ordering.MealOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	day := ordering.DateOf(date)
	for _, order := range orders {
		if err := order.Validate(); err != nil {
			return err
		}
		if !ordering.DateOf(order.Date).Equal(day) {
			return ordering.ErrDateMismatch
		}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range orders {
		if _, ok := s.persons[order.PersonID]; !ok {
			return ordering.ErrUnknownPerson
		}
	}
	for _, order := range orders {
		order.Date = day
		replaced := false
		for i := range s.orders {
			if s.orders[i].PersonID == order.PersonID && s.orders[i].Date.Equal(day) {
				order.ID = s.orders[i].ID
				s.orders[i] = order
				replaced = true
				break
			}
		}
		if !replaced {
			s.nextOrderID++
			order.ID = s.nextOrderID
			s.orders = append(s.orders, order)
		}
	}
	return nil
}

// Append stores a raw order record without the upsert and foreign key
// checks. It is meant for seeding imported data.
func (r *OrderRepository) Append(order ordering.MealOrder) ordering.MealOrder {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrderID++
	order.ID = s.nextOrderID
	order.Date = ordering.DateOf(order.Date)
	s.orders = append(s.orders, order)
	return order
}

func (r *OrderRepository) filter(keep func(ordering.MealOrder) bool) []ordering.MealOrder {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []ordering.MealOrder
	for _, order := range s.orders {
		if keep(order) {
			result = append(result, order)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].PersonID < result[j].PersonID
	})
	return result
}

// ChargeRepository is an in-memory ordering.ChargeRepository.
type ChargeRepository struct {
	store *Store
}

// Create inserts a charge and assigns its id.
func (r *ChargeRepository) Create(ctx context.Context, charge *ordering.AdditionalCharge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	charge.Month = ordering.MonthKey(charge.Month)
	if err := charge.Validate(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[charge.PersonID]; !ok {
		return ordering.ErrUnknownPerson
	}
	s.nextChargeID++
	charge.ID = s.nextChargeID
	s.charges[charge.ID] = *charge
	return nil
}

// Update overwrites a charge.
func (r *ChargeRepository) Update(ctx context.Context, charge *ordering.AdditionalCharge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	charge.Month = ordering.MonthKey(charge.Month)
	if err := charge.Validate(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charges[charge.ID]; !ok {
		return ordering.ErrChargeNotFound
	}
	if _, ok := s.persons[charge.PersonID]; !ok {
		return ordering.ErrUnknownPerson
	}
	s.charges[charge.ID] = *charge
	return nil
}

// Delete removes a charge.
func (r *ChargeRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charges[id]; !ok {
		return ordering.ErrChargeNotFound
	}
	delete(s.charges, id)
	return nil
}

// Get loads a charge. It returns nil when the charge does not exist.
func (r *ChargeRepository) Get(ctx context.Context, id int64) (*ordering.AdditionalCharge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	charge, ok := s.charges[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &charge, nil
}

// ListForPerson returns a person's charges, newest month first.
func (r *ChargeRepository) ListForPerson(ctx context.Context, personID int64) ([]ordering.AdditionalCharge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := r.filter(func(charge ordering.AdditionalCharge) bool { return charge.PersonID == personID })
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Month.Equal(result[j].Month) {
			return result[i].Month.After(result[j].Month)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListForMonth returns the charges whose month key equals month's first day.
func (r *ChargeRepository) ListForMonth(ctx context.Context, month time.Time) ([]ordering.AdditionalCharge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ordering.MonthKey(month)
	result := r.filter(func(charge ordering.AdditionalCharge) bool { return charge.Month.Equal(key) })
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].PersonID != result[j].PersonID {
			return result[i].PersonID < result[j].PersonID
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Append stores a raw charge without the foreign key check.
func (r *ChargeRepository) Append(charge ordering.AdditionalCharge) ordering.AdditionalCharge {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextChargeID++
	charge.ID = s.nextChargeID
	charge.Month = ordering.MonthKey(charge.Month)
	s.charges[charge.ID] = charge
	return charge
}

func (r *ChargeRepository) filter(keep func(ordering.AdditionalCharge) bool) []ordering.AdditionalCharge {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []ordering.AdditionalCharge
	for _, charge := range s.charges {
		if keep(charge) {
			result = append(result, charge)
		}
	}
	return result
}

func clonePerson(person masterdata.Person) masterdata.Person {
	if person.MealPriceOverride != nil {
		price := *person.MealPriceOverride
		person.MealPriceOverride = &price
	}
	return person
}

var (
	_ masterdata.PersonRepository = (*PersonRepository)(nil)
	_ ordering.OrderRepository    = (*OrderRepository)(nil)
	_ ordering.ChargeRepository   = (*ChargeRepository)(nil)
)
