// Package money holds the fixed-point amount type used for balances and
// postings. Amounts are stored as integer minor units (pence) and only cross
// into decimal notation at the JSON boundary.
package money

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by an Amount.
const Scale = 2

var (
	ErrPrecision = errors.New("amount has more than two decimal places")
	ErrOverflow  = errors.New("amount out of range")
)

// Amount is a quantity of money in minor units.
type Amount int64

// FromMinor returns the amount for n minor units.
func FromMinor(n int64) Amount { return Amount(n) }

// FromDecimal converts a decimal to an Amount, rejecting sub-penny precision.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, ErrPrecision
	}
	if !shifted.BigInt().IsInt64() {
		return 0, ErrOverflow
	}
	return Amount(shifted.IntPart()), nil
}

// Parse reads an amount written in major units, e.g. "100.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Minor() int64 { return int64(a) }

func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -Scale) }

func (a Amount) String() string { return a.Decimal().StringFixed(Scale) }

// MarshalJSON writes the amount as a bare JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	data = bytes.Trim(data, `"`)
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*a = Amount(v)
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
	case nil:
		*a = 0
	default:
		return fmt.Errorf("cannot scan %T into money.Amount", src)
	}
	return nil
}
