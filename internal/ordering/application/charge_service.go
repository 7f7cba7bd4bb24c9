package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	masterdata "kitchen-billing/internal/masterdata/domain"
	ordering "kitchen-billing/internal/ordering/domain"
)

// PersonGetter resolves persons by id.
type PersonGetter interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]masterdata.Person, error)
}

// ChargeService manages additional charges.
type ChargeService struct {
	persons PersonGetter
	repo    ordering.ChargeRepository
}

// NewChargeService constructs a ChargeService.
func NewChargeService(persons PersonGetter, repo ordering.ChargeRepository) (*ChargeService, error) {
	if persons == nil {
		return nil, errors.New("charge service: nil person getter")
	}
	if repo == nil {
		return nil, errors.New("charge service: nil charge repository")
	}
	return &ChargeService{persons: persons, repo: repo}, nil
}

// Create stores a new charge for an existing person.
func (s *ChargeService) Create(ctx context.Context, charge ordering.AdditionalCharge) (*ordering.AdditionalCharge, error) {
	charge.ID = 0
	charge.Month = ordering.MonthKey(charge.Month)
	if err := charge.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensurePerson(ctx, charge.PersonID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// Update overwrites an existing charge.
func (s *ChargeService) Update(ctx context.Context, charge ordering.AdditionalCharge) (*ordering.AdditionalCharge, error) {
	if charge.ID <= 0 {
		return nil, ordering.ErrChargeNotFound
	}
	charge.Month = ordering.MonthKey(charge.Month)
	if err := charge.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensurePerson(ctx, charge.PersonID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// Get returns a charge or ErrChargeNotFound.
func (s *ChargeService) Get(ctx context.Context, id int64) (*ordering.AdditionalCharge, error) {
	charge, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, ordering.ErrChargeNotFound
	}
	return charge, nil
}

// Delete removes a charge.
func (s *ChargeService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ListForPerson returns a person's charges, newest month first.
func (s *ChargeService) ListForPerson(ctx context.Context, personID int64) ([]ordering.AdditionalCharge, error) {
	if personID <= 0 {
		return nil, ordering.ErrEmptyPersonID
	}
	return s.repo.ListForPerson(ctx, personID)
}

// ListForMonth returns the charges of month.
func (s *ChargeService) ListForMonth(ctx context.Context, month time.Time) ([]ordering.AdditionalCharge, error) {
	if month.IsZero() {
		return nil, ordering.ErrInvalidMonth
	}
	return s.repo.ListForMonth(ctx, ordering.MonthKey(month))
}

func (s *ChargeService) ensurePerson(ctx context.Context, id int64) error {
	known, err := s.persons.GetMany(ctx, []int64{id})
	if err != nil {
		return err
	}
	if _, ok := known[id]; !ok {
		return fmt.Errorf("%w: id=%d", ordering.ErrUnknownPerson, id)
	}
	return nil
}
