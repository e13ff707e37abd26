// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount held as integer cents so sums never drift.
//
// A stored amount that is not a whole number of cents, or is too large for
// Cents, keeps its exact text in stored. Arithmetic uses the rounded
// Cents; encoding writes the stored text back unchanged.
type Money struct {
	Cents int64

	stored string
}

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding to two decimal places. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseNonNegativeCents is ParseDecimalToCents that also accepts zero.
// Thresholds use it; amounts and targets do not.
func ParseNonNegativeCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		return 0, ErrNegativeThreshold
	}
	return cents, nil
}

// ParseAmount parses a positive amount entered for field. Failures are
// *ValidationError values naming that field.
func ParseAmount(field, s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, invalid(field, err)
	}
	return Money{Cents: cents}, nil
}

// ParseThreshold parses an alert threshold, where zero is allowed.
func ParseThreshold(s string) (Money, error) {
	cents, err := ParseNonNegativeCents(s)
	if err != nil {
		return Money{}, invalid("alertThreshold", err)
	}
	return Money{Cents: cents}, nil
}

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(d)
}

// decimalToCents rounds half away from zero to two places.
func decimalToCents(d decimal.Decimal) (int64, error) {
	c := d.Round(2).Mul(hundred)
	if !c.IsInteger() || c.Abs().GreaterThan(decimal.NewFromInt(maxSafeCents)) {
		return 0, ErrInvalidAmount
	}
	return c.IntPart(), nil
}

// Prevent overflow when sums of many amounts are taken.
const maxSafeCents = (1<<63 - 1) / 1000

// MustMoney builds a Money from a decimal literal such as "12.50".
// It panics on malformed input and is meant for literals in tests and defaults.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("core: bad money literal %q: %v", s, err))
	}
	c, err := decimalToCents(d)
	if err != nil {
		panic(fmt.Sprintf("core: bad money literal %q: %v", s, err))
	}
	return Money{Cents: c}
}

// Decimal returns the amount as a shopspring decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Rounded reports whether Cents is an approximation of the stored amount.
func (m Money) Rounded() bool {
	return m.stored != ""
}

// Add returns m+o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m-o.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// IsPositive reports whether the amount is strictly above zero.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// String formats with exactly two decimals, e.g. "-12.05".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Dollars formats for user-facing messages, e.g. "$1000.00".
func (m Money) Dollars() string {
	if m.Cents < 0 {
		return "-$" + Money{Cents: -m.Cents}.String()
	}
	return "$" + m.String()
}

// MarshalJSON writes a bare JSON number such as 12.5 or 1000. A decoded
// amount that was rounded is written back exactly as it was read.
func (m Money) MarshalJSON() ([]byte, error) {
	if m.stored != "" {
		return []byte(m.stored), nil
	}
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted number. Stored documents
// are never rejected for precision or size: such amounts keep their exact
// value and Cents holds the nearest representable approximation.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode amount %s: %w", data, err)
	}

	*m = Money{}
	c, err := decimalToCents(d)
	if err != nil {
		// Out of range: saturate so sums stay finite.
		c = maxSafeCents
		if d.IsNegative() {
			c = -maxSafeCents
		}
	}
	m.Cents = c
	if err != nil || !d.Equal(decimal.New(c, -2)) {
		m.stored = d.String()
	}
	return nil
}
