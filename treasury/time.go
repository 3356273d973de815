package treasury

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date without time, compared as an ISO string
// =============================================================================

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar date formatted as YYYY-MM-DD. Dates are compared
// lexicographically, which is only correct for zero-padded values, so every
// Date entering the engine must pass Validate.
type Date string

func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func ParseDate(s string) (Date, error) {
	d := Date(s)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

func (d Date) Validate() error {
	if len(d) != len(dateLayout) {
		return fmt.Errorf("%w: %q", ErrMalformedDate, string(d))
	}
	if _, err := time.Parse(dateLayout, string(d)); err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, string(d))
	}
	return nil
}

func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

// Month returns the YYYY-MM prefix. Only meaningful on a valid Date.
func (d Date) Month() Month {
	if len(d) < len(monthLayout) {
		return ""
	}
	return Month(d[:len(monthLayout)])
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool { return d < o }
func (d Date) After(o Date) bool  { return d > o }

func (d Date) String() string { return string(d) }

// =============================================================================
// MONTH - A period, identified as YYYY-MM
// =============================================================================

type Month string

func NewMonth(year int, month time.Month) Month {
	return Month(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout))
}

func ParseMonth(s string) (Month, error) {
	m := Month(s)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m Month) Validate() error {
	if len(m) != len(monthLayout) {
		return fmt.Errorf("%w: %q", ErrMalformedPeriod, string(m))
	}
	if _, err := time.Parse(monthLayout, string(m)); err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedPeriod, string(m))
	}
	return nil
}

func (m Month) time() time.Time {
	t, _ := time.Parse(monthLayout, string(m))
	return t
}

func (m Month) Year() int { return m.time().Year() }

func (m Month) Previous() Month { return Month(m.time().AddDate(0, -1, 0).Format(monthLayout)) }
func (m Month) Next() Month     { return Month(m.time().AddDate(0, 1, 0).Format(monthLayout)) }

// Start returns the first day of the month.
func (m Month) Start() Date { return DateOf(m.time()) }

// End returns the last day of the month.
func (m Month) End() Date { return DateOf(m.time().AddDate(0, 1, -1)) }

func (m Month) Range() DateRange { return DateRange{Start: m.Start(), End: m.End()} }

func (m Month) String() string { return string(m) }

// =============================================================================
// DATE RANGE - Inclusive [Start, End]
// =============================================================================

type DateRange struct {
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

func NewDateRange(start, end string) (DateRange, error) {
	r := DateRange{Start: Date(start), End: Date(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return err
	}
	if err := r.End.Validate(); err != nil {
		return err
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s after %s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Contains reports whether d lies within the range, inclusive on both ends.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return "[" + string(r.Start) + ", " + string(r.End) + "]"
}
