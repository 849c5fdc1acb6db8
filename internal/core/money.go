// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents and cross the wire as JSON numbers
// with two decimals, so a persisted blob never carries a string amount.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount bounds parsed amounts well inside int64 cents.
var maxAmount = decimal.NewFromInt(1_000_000_000_000)

// ParseAmount converts a decimal string to Money with half-up rounding on
// the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Empty,
// signed, non-numeric and non-positive values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, s)
	}
	m := FromDecimal(d)
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// FromDecimal rounds d to cents.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Decimal returns the amount as a decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String formats the amount with exactly two decimals, e.g. "3.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format prefixes the two-decimal amount with a currency symbol.
func (m Money) Format(symbol string) string {
	if m.Cents < 0 {
		return "-" + symbol + Money{Cents: -m.Cents}.String()
	}
	return symbol + m.String()
}

// Float returns the amount as float64 for chart values.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Values beyond
// the parse bound are rejected so they never wrap around int64 cents.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	b = bytes.Trim(b, `"`)
	d, err := decimal.NewFromString(strings.ReplaceAll(string(b), ",", "."))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	if d.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: %s is too large", ErrInvalidAmount, string(b))
	}
	*m = FromDecimal(d)
	return nil
}
