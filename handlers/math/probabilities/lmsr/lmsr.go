// Package lmsr implements the Logarithmic Market Scoring Rule (LMSR)
// for a two-outcome market, as described by Robin Hanson.
//
// LMSR provides:
// - Bounded loss for the market maker (b * ln 2 for a binary market)
// - Always available liquidity
// - Prices that read as probabilities
//
// Every function here is pure and safe to call from any goroutine.
package lmsr

import (
	"math"

	"lmsrmarket/models"
)

// DefaultLiquidity is used when a non-positive b is supplied.
const DefaultLiquidity = 10.0

// LMSR implements the Logarithmic Market Scoring Rule
type LMSR struct {
	// B is the liquidity parameter. Higher B means flatter prices and a larger
	// worst-case subsidy; lower B means prices move faster per share.
	B float64
}

// New creates a new LMSR market maker with the given liquidity parameter
func New(liquidity float64) *LMSR {
	if liquidity <= 0 || math.IsNaN(liquidity) || math.IsInf(liquidity, 0) {
		liquidity = DefaultLiquidity
	}
	return &LMSR{B: liquidity}
}

// Cost is the potential function C(qYes, qNo) = b * ln(exp(qYes/b) + exp(qNo/b)),
// evaluated with the log-sum-exp shift so large quantities do not overflow.
func (l *LMSR) Cost(qYes, qNo float64) float64 {
	m := math.Max(qYes, qNo) / l.B
	return l.B * (m + math.Log(math.Exp(qYes/l.B-m)+math.Exp(qNo/l.B-m)))
}

// Prices are clamped strictly inside (0, 1); float64 would otherwise round
// the dominant side of a lopsided market to exactly 1.
var (
	minPrice = math.SmallestNonzeroFloat64
	maxPrice = math.Nextafter(1, 0)
)

// logPrice returns ln of the instantaneous price of side. The price of side
// is 1/(1+exp(d)) with d = (q_other-q_side)/b, so its log is -softplus(d).
func (l *LMSR) logPrice(qYes, qNo float64, side models.Side) float64 {
	own, other := qYes, qNo
	if side == models.SideNo {
		own, other = qNo, qYes
	}
	return -softplus((other - own) / l.B)
}

// softplus is ln(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// Price returns the instantaneous price of side, dC/dq_side.
func (l *LMSR) Price(qYes, qNo float64, side models.Side) float64 {
	p := math.Exp(l.logPrice(qYes, qNo, side))
	return math.Min(math.Max(p, minPrice), maxPrice)
}

// PriceYes returns the instantaneous price of YES.
func (l *LMSR) PriceYes(qYes, qNo float64) float64 {
	return l.Price(qYes, qNo, models.SideYes)
}

// PriceNo returns the instantaneous price of NO. It is computed directly,
// not as 1 - PriceYes, so it keeps its precision when NO is cheap.
func (l *LMSR) PriceNo(qYes, qNo float64) float64 {
	return l.Price(qYes, qNo, models.SideNo)
}

// After returns the quantities that result from issuing shares on side.
func After(qYes, qNo, shares float64, side models.Side) (float64, float64) {
	if side == models.SideYes {
		return qYes + shares, qNo
	}
	return qYes, qNo + shares
}

// CostToBuy is C(q_new) - C(q_current) for buying shares of side. It is
// evaluated as b * ln(1 + p_side*(exp(shares/b)-1)) in log space, which keeps
// full precision for the cheap side of a lopsided market.
func (l *LMSR) CostToBuy(qYes, qNo, shares float64, side models.Side) float64 {
	x := shares / l.B
	if x <= 0 {
		newYes, newNo := After(qYes, qNo, shares, side)
		return l.Cost(newYes, newNo) - l.Cost(qYes, qNo)
	}
	return l.B * softplus(l.logPrice(qYes, qNo, side)+logExpm1(x))
}

// logExpm1 is ln(exp(x)-1) for x > 0.
func logExpm1(x float64) float64 {
	if x > 30 {
		return x + math.Log1p(-math.Exp(-x))
	}
	return math.Log(math.Expm1(x))
}

// SharesForCost finds how many shares of side a budget of cost buys.
// Uses bisection; the answer is never more than the budget allows.
func (l *LMSR) SharesForCost(qYes, qNo, cost float64, side models.Side) float64 {
	if cost <= 0 {
		return 0
	}

	// Every share costs less than 1, so the budget itself is a lower bound.
	// Grow the upper bound until it overshoots.
	low := 0.0
	high := cost
	for i := 0; i < 64 && l.CostToBuy(qYes, qNo, high, side) < cost; i++ {
		low = high
		high *= 2
	}

	for i := 0; i < 100; i++ {
		mid := (low + high) / 2
		if mid == low || mid == high {
			break
		}
		if l.CostToBuy(qYes, qNo, mid, side) <= cost {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// MaxLoss returns the maximum possible loss for the market maker: b * ln(2)
func (l *LMSR) MaxLoss() float64 {
	return l.B * math.Ln2
}

// BuySimulation shows what a buy would do without committing it.
type BuySimulation struct {
	Side            models.Side `json:"side"`
	Shares          float64     `json:"shares"`
	Cost            float64     `json:"cost"`
	NewPriceYes     float64     `json:"newPriceYes"`
	NewPriceNo      float64     `json:"newPriceNo"`
	PriceImpact     float64     `json:"priceImpact"` // change in the YES price
	AveragePrice    float64     `json:"averagePrice"`
	PotentialPayout float64     `json:"potentialPayout"` // if side wins
}

// SimulateBuy shows the effect of buying shares of side.
func (l *LMSR) SimulateBuy(qYes, qNo, shares float64, side models.Side) BuySimulation {
	currentPriceYes := l.PriceYes(qYes, qNo)
	cost := l.CostToBuy(qYes, qNo, shares, side)
	newYes, newNo := After(qYes, qNo, shares, side)
	newPriceYes := l.PriceYes(newYes, newNo)
	newPriceNo := l.PriceNo(newYes, newNo)

	sim := BuySimulation{
		Side:            side,
		Shares:          shares,
		Cost:            cost,
		NewPriceYes:     newPriceYes,
		NewPriceNo:      newPriceNo,
		PriceImpact:     newPriceYes - currentPriceYes,
		PotentialPayout: shares, // each share pays 1 unit if correct
	}
	if shares > 0 {
		sim.AveragePrice = cost / shares
	}
	return sim
}
