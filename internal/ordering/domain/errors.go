package ordering

import "errors"

var (
	// ErrInvalidDate is returned when an order has no date.
	ErrInvalidDate = errors.New("ordering: invalid date")
	// ErrInvalidMonth is returned when a charge has no month key.
	ErrInvalidMonth = errors.New("ordering: invalid month")
	// ErrEmptyPersonID is returned when a record references no person.
	ErrEmptyPersonID = errors.New("ordering: empty person id")
	// ErrNegativeQuantity is returned for quantities below zero.
	ErrNegativeQuantity = errors.New("ordering: negative quantity")
	// ErrNegativePrice is returned for unit prices below zero.
	ErrNegativePrice = errors.New("ordering: negative price")
	// ErrEmptyDescription is returned when a charge has no description.
	ErrEmptyDescription = errors.New("ordering: empty description")
	// ErrDescriptionTooLong is returned when a charge description exceeds its limit.
	ErrDescriptionTooLong = errors.New("ordering: description too long")
	// ErrUnknownPerson is returned when a record references a person that does not exist.
	ErrUnknownPerson = errors.New("ordering: unknown person")
	// ErrChargeNotFound is returned when a charge does not exist.
	ErrChargeNotFound = errors.New("ordering: charge not found")
	// ErrDateMismatch is returned when an order's date differs from the capture date.
	ErrDateMismatch = errors.New("ordering: order date does not match capture date")
)
