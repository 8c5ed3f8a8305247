// Package currency implements fixed-point money arithmetic: every value is a
// signed integer number of 1/100ths of a currency unit, so stake accounting
// never drifts the way floating point would across thousands of holds and
// releases.
package currency

import (
	"fmt"
	"math"
)

// Currency is an amount in integer cents.
type Currency int64

// Zero is the additive identity.
const Zero Currency = 0

// FromFloat converts a float64 major-unit amount into Currency, rounding to
// the nearest cent. Non-finite inputs (NaN, +/-Inf) yield Zero.
func FromFloat(amount float64) Currency {
	if !isNormalOrZero(amount) {
		return Zero
	}
	return Currency(math.Round(amount * 100))
}

// Float returns the amount as a major-unit float64.
func (c Currency) Float() float64 {
	return float64(c) / 100
}

// Add returns c + other.
func (c Currency) Add(other Currency) Currency {
	return c + other
}

// Sub returns c - other.
func (c Currency) Sub(other Currency) Currency {
	return c - other
}

// Mul scales c by a finite positive real, rounding to the nearest cent.
// A non-finite multiplier yields Zero.
func (c Currency) Mul(factor float64) Currency {
	if !isNormalOrZero(factor) {
		return Zero
	}
	return Currency(math.Round(float64(c) * factor))
}

// String renders the amount as "$D.CC", matching the sign of the amount.
func (c Currency) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("$%s%d.%02d", sign, v/100, v%100)
}

func isNormalOrZero(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
