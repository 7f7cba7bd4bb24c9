package billing

import (
	"fmt"
	"time"
)

const (
	minYear = 1
	maxYear = 9999
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates year and month.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month=%d", ErrInvalidPeriod, month)
	}
	if year < minYear || year > maxYear {
		return Period{}, fmt.Errorf("%w: year=%d", ErrInvalidPeriod, year)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start returns the first day of the month, inclusive.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following month, exclusive.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

// Contains reports whether t falls inside the month.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start()) && t.Before(p.End())
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Title returns the localized heading, e.g. "Jänner 2026".
func (p Period) Title() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}
