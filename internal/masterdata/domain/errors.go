package masterdata

import "errors"

var (
	// ErrEmptyName is returned when a person has no name.
	ErrEmptyName = errors.New("person: empty name")
	// ErrFieldTooLong is returned when a text field exceeds its limit.
	ErrFieldTooLong = errors.New("person: field too long")
	// ErrInvalidCategory is returned for unknown categories.
	ErrInvalidCategory = errors.New("person: invalid category")
	// ErrNegativePrice is returned when the meal price override is negative.
	ErrNegativePrice = errors.New("person: negative meal price")
	// ErrNegativeQuantity is returned when the default meal quantity is negative.
	ErrNegativeQuantity = errors.New("person: negative default meal quantity")
	// ErrPersonNotFound is returned when a person does not exist.
	ErrPersonNotFound = errors.New("person: not found")
)
