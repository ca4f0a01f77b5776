// Package money holds the amount type shared by the catalog and the cart.
// Amounts are exact decimals so repeated additions never drift.
package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a currency amount without minor units (CLP).
type Amount struct {
	value decimal.Decimal
}

func New(v int64) Amount {
	return Amount{value: decimal.NewFromInt(v)}
}

func Zero() Amount {
	return Amount{value: decimal.Zero}
}

func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{value: d}, nil
}

func (a Amount) Add(b Amount) Amount {
	return Amount{value: a.value.Add(b.value)}
}

// Mul multiplies by a line quantity.
func (a Amount) Mul(qty int) Amount {
	return Amount{value: a.value.Mul(decimal.NewFromInt(int64(qty)))}
}

func (a Amount) IsNegative() bool { return a.value.IsNegative() }

// IsWhole reports whether the amount has no fractional part.
func (a Amount) IsWhole() bool { return a.value.Equal(a.value.Truncate(0)) }
func (a Amount) IsZero() bool     { return a.value.IsZero() }
func (a Amount) Equal(b Amount) bool {
	return a.value.Equal(b.value)
}

// IntPart truncates toward zero.
func (a Amount) IntPart() int64 { return a.value.IntPart() }

func (a Amount) String() string { return a.value.String() }

// MarshalJSON writes a bare JSON number so catalog files keep their shape.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Numbers are parsed
// from their literal text, never through float64.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		a.value = decimal.Zero
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	a.value = d
	return nil
}

// Sum adds amounts in order.
func Sum(amounts ...Amount) Amount {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
