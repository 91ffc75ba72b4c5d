package currency

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromCostRoundsUp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"exact", 1.5, "1.5"},
		{"ninth place rounds up", 1.000000001, "1.00000001"},
		{"tiny positive never zero", 1e-12, "0.00000001"},
		{"zero", 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(FromCost(tt.in)), "got %s", FromCost(tt.in))
		})
	}
}

func TestChargeIsNeverZero(t *testing.T) {
	assert.True(t, Charge(0).Equal(MinCharge))
	assert.True(t, Charge(3.7e-18).Equal(decimal.RequireFromString("0.00000001")))
	assert.True(t, Charge(2.5).Equal(decimal.RequireFromString("2.5")))
}

func TestFitsScale(t *testing.T) {
	assert.True(t, FitsScale(decimal.RequireFromString("5")))
	assert.True(t, FitsScale(decimal.RequireFromString("0.00000001")))
	assert.False(t, FitsScale(decimal.RequireFromString("0.000000001")))
}

func TestToFloatAndIsFinite(t *testing.T) {
	assert.InDelta(t, 2.25, ToFloat(decimal.RequireFromString("2.25")), Tolerance)
	assert.True(t, IsFinite(1))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.NaN()))
}
