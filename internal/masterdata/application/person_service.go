package application

import (
	"context"
	"errors"

	masterdata "kitchen-billing/internal/masterdata/domain"
)

// PersonService manages meal recipients.
type PersonService struct {
	repo masterdata.PersonRepository
}

// NewPersonService constructs a PersonService.
func NewPersonService(repo masterdata.PersonRepository) (*PersonService, error) {
	if repo == nil {
		return nil, errors.New("person service: nil repo")
	}
	return &PersonService{repo: repo}, nil
}

// Create validates and stores a new person.
func (s *PersonService) Create(ctx context.Context, person masterdata.Person) (*masterdata.Person, error) {
	person.ID = 0
	applyDefaults(&person)
	if err := person.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// Update overwrites an existing person.
func (s *PersonService) Update(ctx context.Context, person masterdata.Person) (*masterdata.Person, error) {
	if person.ID <= 0 {
		return nil, masterdata.ErrPersonNotFound
	}
	applyDefaults(&person)
	if err := person.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &person); err != nil {
		return nil, err
	}
	return s.Get(ctx, person.ID)
}

// Get returns a person or ErrPersonNotFound.
func (s *PersonService) Get(ctx context.Context, id int64) (*masterdata.Person, error) {
	person, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, masterdata.ErrPersonNotFound
	}
	return person, nil
}

// List returns all persons ordered by name.
func (s *PersonService) List(ctx context.Context) ([]masterdata.Person, error) {
	return s.repo.List(ctx)
}

// Delete removes a person together with its orders and charges.
func (s *PersonService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func applyDefaults(person *masterdata.Person) {
	if person.DefaultMealQuantity == 0 && person.Category == masterdata.CategoryPensioner {
		person.DefaultMealQuantity = masterdata.DefaultMealQuantity
	}
}
