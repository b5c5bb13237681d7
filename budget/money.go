package budget

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amount in the currency's major unit (12.50 = $12.50)
// =============================================================================

// Money is an amount with cent precision. It serializes as a plain JSON
// number with two decimals. Currency symbols and locales are a display
// concern and never reach this type.
type Money struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

var hundred = decimal.NewFromInt(100)

// NewMoney converts a float rounded to cents. NaN and infinities become zero.
func NewMoney(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero
	}
	return Money{value: decimal.NewFromFloat(f).Round(2)}
}

// MoneyFromDecimal wraps a decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d}
}

// ParseMoney parses a decimal string such as "12.50", rounded to cents.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{value: d.Round(2)}, nil
}

// MustParseMoney is ParseMoney for literals.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromFloat is the boundary constructor for user input: negative,
// NaN and infinite values clamp to zero.
func MoneyFromFloat(f float64) Money {
	return NewMoney(f).NonNegative()
}

func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) Add(o Money) Money        { return Money{value: m.value.Add(o.value)} }
func (m Money) Sub(o Money) Money        { return Money{value: m.value.Sub(o.value)} }
func (m Money) Equal(o Money) bool       { return m.value.Equal(o.value) }
func (m Money) GreaterThan(o Money) bool { return m.value.GreaterThan(o.value) }
func (m Money) LessThan(o Money) bool    { return m.value.LessThan(o.value) }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }

// Float64 is for display only.
func (m Money) Float64() float64 {
	f, _ := m.value.Float64()
	return f
}

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.IsNegative() {
		return Zero
	}
	return m
}

// Round rounds half away from zero to cents.
func (m Money) Round() Money {
	return Money{value: m.value.Round(2)}
}

// DivCeil splits m into n parts rounded up to the next cent, so n parts
// always cover m. n < 1 returns m unchanged.
func (m Money) DivCeil(n int) Money {
	if n < 1 {
		return m
	}
	share := m.value.Mul(hundred).Div(decimal.NewFromInt(int64(n)))
	return Money{value: share.Ceil().Div(hundred)}
}

// Min returns the smaller amount.
func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

// Max returns the larger amount.
func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// String formats with exactly two decimals.
func (m Money) String() string {
	return m.value.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return fmt.Errorf("money must be a number: %w", err)
	}
	m.value = d.Round(2)
	return nil
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
