package billing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPeriod is returned for an out-of-range year or month.
	ErrInvalidPeriod = errors.New("billing: invalid period")
	// ErrDataIntegrity is returned when a record references a person that cannot be resolved.
	ErrDataIntegrity = errors.New("billing: data integrity violation")
	// ErrNegativePrice is returned when a price table contains a negative amount.
	ErrNegativePrice = errors.New("billing: negative price")
	// ErrUnknownPolicy is returned for an unrecognized charge-only policy.
	ErrUnknownPolicy = errors.New("billing: unknown charge-only policy")
)

// IntegrityError describes an order or charge whose person does not exist.
type IntegrityError struct {
	PersonID int64
	Source   string
	Date     time.Time
}

func (e *IntegrityError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("billing: %s references unknown person %d", e.Source, e.PersonID)
	}
	return fmt.Sprintf("billing: %s on %s references unknown person %d", e.Source, e.Date.Format("2006-01-02"), e.PersonID)
}

// Unwrap lets errors.Is match ErrDataIntegrity.
func (e *IntegrityError) Unwrap() error { return ErrDataIntegrity }
