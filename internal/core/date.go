package core

import (
	"strings"
	"time"
)

// DateLayout is the canonical, zero-padded calendar date format.
const DateLayout = "2006-01-02"

// Date is a calendar date in canonical YYYY-MM-DD form. Canonical dates
// compare correctly as strings.
type Date string

// ParseDate validates s and returns it as a canonical Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// NewDate builds a date from its parts. Out-of-range parts normalise the
// way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return string(d)
}

// Validate reports ErrInvalidDate unless d is canonical.
func (d Date) Validate() error {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil || t.Format(DateLayout) != string(d) {
		return ErrInvalidDate
	}
	return nil
}

// Time returns midnight UTC of d. Callers must pass a valid date.
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// InRange reports start <= d <= end.
func (d Date) InRange(start, end Date) bool {
	return d >= start && d <= end
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last date of a month.
func MonthRange(year int, month time.Month) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysIn(year, month))
}
