package num

import (
	"github.com/shopspring/decimal"
)

// Decimal is the fixed precision type used for all monetary values: prices,
// cash balances and P&L. Never store money in a float.
type Decimal = decimal.Decimal

var (
	dzero = decimal.Zero
	done  = decimal.NewFromInt(1)
)

func DecimalZero() Decimal {
	return dzero
}

func DecimalOne() Decimal {
	return done
}

func DecimalFromInt64(i int64) Decimal {
	return decimal.NewFromInt(i)
}

func DecimalFromUint64(u uint64) Decimal {
	return decimal.NewFromInt(int64(u))
}

func DecimalFromFloat(v float64) Decimal {
	return decimal.NewFromFloat(v)
}

func DecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// MustDecimalFromString panics on a malformed decimal, for constants and
// tests only.
func MustDecimalFromString(s string) Decimal {
	d, err := DecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func MaxD(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func MinD(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MinV returns the smaller of two order volumes.
func MinV(x, y uint64) uint64 {
	if y < x {
		return y
	}
	return x
}
