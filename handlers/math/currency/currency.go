// Package currency converts between the float64 world of the pricing math
// and the fixed-point decimals stored in the ledger.
package currency

import (
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for balances, costs and shares.
const Scale int32 = 8

// Tolerance is the slack allowed when comparing float prices and costs.
const Tolerance = 1e-9

// FromCost converts a float cost into currency, rounding up to Scale places
// so a trade is never undercharged and a positive cost never becomes zero.
func FromCost(cost float64) decimal.Decimal {
	return decimal.NewFromFloat(cost).RoundCeil(Scale)
}

// MinCharge is one unit at Scale, the least a buy ever costs.
var MinCharge = decimal.New(1, -Scale)

// Charge converts the cost of a buy into currency. Issuing shares is never
// free, so a cost that rounds below one unit is charged as MinCharge.
func Charge(cost float64) decimal.Decimal {
	d := FromCost(cost)
	if d.LessThan(MinCharge) {
		return MinCharge
	}
	return d
}

// ToFloat converts a stored amount for use in the pricing math.
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// FitsScale reports whether d has no more than Scale decimal places.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// IsFinite reports whether f can be stored at all.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
