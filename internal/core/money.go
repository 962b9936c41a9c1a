// Package core holds the tracker's domain types.
//
// Amounts are kept as integer cents so that every sum is exact; decimal
// parsing and formatting go through shopspring/decimal.
package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount with two decimal places.
type Money struct {
	Cents int64
}

// maxCents keeps every amount well inside int64 even after summing.
const maxCents = 1e16

// MoneyFromCents wraps a cent value.
func MoneyFromCents(cents int64) Money { return Money{Cents: cents} }

// ParseAmount converts a decimal string such as "12.34" into Money.
//
// At most two decimal places are accepted; "12.345" is rejected rather than
// rounded. Sign is preserved: positivity is a validation concern.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234 cents
//	ParseAmount("7")     -> 700 cents
//	ParseAmount("0.5")   -> 50 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a valid number", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Truncate(2)) {
		return Money{}, fmt.Errorf("%w: ensure that there are no more than 2 decimal places", ErrInvalidAmount)
	}
	cents := d.Shift(2)
	if cents.Abs().GreaterThanOrEqual(decimal.NewFromInt(maxCents)) {
		return Money{}, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the exact decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 converts to float for output. Sums must be done on Money first.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsZero() bool     { return m.Cents == 0 }

// Exceeds reports whether the amount needs more than maxDigits significant
// digits, two of which are decimals.
func (m Money) Exceeds(maxDigits int) bool {
	c := m.Cents
	if c < 0 {
		c = -c
	}
	return len(strconv.FormatInt(c, 10)) > maxDigits
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	raw := string(data)
	if len(data) > 1 && data[0] == '"' {
		unq, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		raw = unq
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
