package billing

import (
	"fmt"
	"strings"
)

// ChargeOnlyPolicy decides what happens to a person that has additional
// charges but no orders in the month.
type ChargeOnlyPolicy string

const (
	// ChargeOnlyOmit produces no row; the charges do not appear in the month.
	ChargeOnlyOmit ChargeOnlyPolicy = "omit"
	// ChargeOnlyInclude produces a zero-meal row carrying the charges.
	ChargeOnlyInclude ChargeOnlyPolicy = "include"
)

// ParseChargeOnlyPolicy parses a policy name. Empty means omit.
func ParseChargeOnlyPolicy(value string) (ChargeOnlyPolicy, error) {
	switch ChargeOnlyPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", ChargeOnlyOmit:
		return ChargeOnlyOmit, nil
	case ChargeOnlyInclude:
		return ChargeOnlyInclude, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, value)
	}
}
