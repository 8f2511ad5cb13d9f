package domain

import "github.com/shopspring/decimal"

// MinorUnitExponent is the number of decimal places between the major and
// minor currency unit (rupee/paise, dollar/cent).
const MinorUnitExponent = 2

// Money is an amount in currency minor units.
type Money int64

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(MinorUnitExponent).Round(0).IntPart())
}

func MoneyFromFloat(f float64) Money {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// MoneyFromString parses a major-unit amount such as "499.99".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return MoneyFromDecimal(d), nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitExponent)
}

func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) Mul(quantity int) Money {
	return m * Money(quantity)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnitExponent)
}

// Ptr is a convenience for optional price fields.
func (m Money) Ptr() *Money {
	return &m
}
