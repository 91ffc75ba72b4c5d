package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"yes": SideYes, " YES ": SideYes, "No": SideNo} {
		got, ok := ParseSide(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseSide("maybe")
	assert.False(t, ok)
	assert.False(t, Side("").Valid())
	assert.Equal(t, SideNo, SideYes.Opposite())
	assert.Equal(t, SideYes, SideNo.Opposite())
}

func TestAccountHoldings(t *testing.T) {
	a := Account{HoldingsYes: decimal.Zero, HoldingsNo: decimal.Zero}
	a.AddHoldings(SideYes, decimal.NewFromInt(3))
	a.AddHoldings(SideNo, decimal.RequireFromString("1.5"))
	assert.True(t, a.Holdings(SideYes).Equal(decimal.NewFromInt(3)))
	assert.True(t, a.Holdings(SideNo).Equal(decimal.RequireFromString("1.5")))

	a.ClearHoldings()
	assert.True(t, a.Holdings(SideYes).IsZero())
	assert.True(t, a.Holdings(SideNo).IsZero())

	public := a.ToPublic()
	assert.Equal(t, a.Username, public.Username)
}

func TestTradeAveragePrice(t *testing.T) {
	trade := Trade{Quantity: decimal.NewFromInt(4), Cost: decimal.NewFromInt(1)}
	assert.True(t, trade.AveragePrice().Equal(decimal.RequireFromString("0.25")))
	assert.True(t, (&Trade{Quantity: decimal.Zero}).AveragePrice().IsZero())
}
