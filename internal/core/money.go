// Package core provides the domain model shared by every store and view:
// categories, expenses, calendar dates and exact money amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. Sums never lose precision; rounding to
// two places happens only when formatting.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// ParseAmount parses a user-entered amount on the entry path.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to cents. Signs, non-numeric input and amounts that round
// to zero are rejected with ErrInvalidAmount.
//
//	ParseAmount("12,5")   -> 12.50
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("-3")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrEmptyAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Zero, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// MoneyFromString parses a stored amount exactly, without entry-path checks.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, err
	}
	return Money{d: d}, nil
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Div divides by n, rounding half-up to cents. Division by zero yields Zero.
func (m Money) Div(n int) Money {
	if n == 0 {
		return Zero
	}
	return Money{d: m.d.DivRound(decimal.NewFromInt(int64(n)), 2)}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Percent returns m as a percentage of total, rounded to one decimal place.
func (m Money) Percent(total Money) float64 {
	if total.d.IsZero() {
		return 0
	}
	f, _ := m.d.Mul(decimal.NewFromInt(100)).DivRound(total.d, 1).Float64()
	return f
}

// Cents returns the amount rounded half-up to whole cents.
func (m Money) Cents() int64 {
	return m.d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Float64 returns an approximation for charting and spreadsheet cells.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String formats with exactly two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.d = d
	return nil
}

// Format renders the amount with a currency symbol, e.g. "$12.50".
func (m Money) Format(c Currency) string {
	if m.d.IsNegative() {
		return "-" + c.Symbol() + m.d.Neg().StringFixed(2)
	}
	return c.Symbol() + m.d.StringFixed(2)
}

// Currency selects the display symbol. No conversion is ever applied.
type Currency string

const (
	USD Currency = "USD"
	INR Currency = "INR"
	EUR Currency = "EUR"
)

func (c Currency) Symbol() string {
	switch c {
	case INR:
		return "₹"
	case EUR:
		return "€"
	default:
		return "$"
	}
}

func (c Currency) IsValid() bool {
	switch c {
	case USD, INR, EUR:
		return true
	default:
		return false
	}
}
