package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"lmsrmarket/handlers/math/currency"
	"lmsrmarket/handlers/math/probabilities/lmsr"
	"lmsrmarket/models"
	"lmsrmarket/store/ledger"
	"lmsrmarket/store/marketstate"
)

// Snapshot is a read-only view of the market for display.
type Snapshot struct {
	QYes      decimal.Decimal `json:"qYes"`
	QNo       decimal.Decimal `json:"qNo"`
	PriceYes  float64         `json:"priceYes"`
	PriceNo   float64         `json:"priceNo"`
	Resolved  bool            `json:"resolved"`
	// Settling is set while a resolution is journaled but not yet paid out.
	// Trading is closed meanwhile.
	Settling  bool            `json:"settling"`
	Outcome   models.Side     `json:"outcome,omitempty"`
	Epoch     int64           `json:"epoch"`
	Liquidity float64         `json:"liquidity"`
	MaxLoss   float64         `json:"maxLoss"`
}

// Snapshot reads the current market without taking the gate.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	db := e.db.WithContext(ctx)
	state, err := marketstate.Current(db)
	if err != nil {
		return nil, wrapStorage("load market state", err)
	}
	settling, err := settlementPending(db, state.Epoch)
	if err != nil {
		return nil, wrapStorage("load settlement runs", err)
	}
	qYes, qNo := currency.ToFloat(state.QYes), currency.ToFloat(state.QNo)
	return &Snapshot{
		QYes:      state.QYes,
		QNo:       state.QNo,
		PriceYes:  e.maker.PriceYes(qYes, qNo),
		PriceNo:   e.maker.PriceNo(qYes, qNo),
		Resolved:  state.Resolved,
		Settling:  settling,
		Outcome:   state.Outcome,
		Epoch:     state.Epoch,
		Liquidity: e.maker.B,
		MaxLoss:   e.maker.MaxLoss(),
	}, nil
}

// Quote previews buying qty shares of side at the current state. Nothing is
// committed and the price may have moved by the time a buy is placed.
func (e *Engine) Quote(ctx context.Context, side models.Side, qty decimal.Decimal) (*lmsr.BuySimulation, error) {
	if !qty.IsPositive() || !currency.FitsScale(qty) {
		return nil, ErrInvalidQuantity
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	state, err := e.openState(ctx)
	if err != nil {
		return nil, err
	}
	sim := e.maker.SimulateBuy(currency.ToFloat(state.QYes), currency.ToFloat(state.QNo), currency.ToFloat(qty), side)
	sim.Cost = currency.ToFloat(currency.Charge(sim.Cost))
	return &sim, nil
}

// QuoteBudget previews how many shares of side a budget buys.
func (e *Engine) QuoteBudget(ctx context.Context, side models.Side, budget decimal.Decimal) (*lmsr.BuySimulation, error) {
	if !budget.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	state, err := e.openState(ctx)
	if err != nil {
		return nil, err
	}
	qYes, qNo := currency.ToFloat(state.QYes), currency.ToFloat(state.QNo)
	shares := e.maker.SharesForCost(qYes, qNo, currency.ToFloat(budget), side)
	// Shares are stored with eight decimal places; round down so the quote
	// stays inside the budget.
	shares = currency.ToFloat(decimal.NewFromFloat(shares).RoundFloor(currency.Scale))
	sim := e.maker.SimulateBuy(qYes, qNo, shares, side)
	return &sim, nil
}

// openState loads the market state for a quote, refusing a market that is
// resolved or settling.
func (e *Engine) openState(ctx context.Context) (*models.MarketState, error) {
	db := e.db.WithContext(ctx)
	state, err := marketstate.Current(db)
	if err != nil {
		return nil, wrapStorage("load market state", err)
	}
	if state.Resolved {
		return nil, ErrMarketClosed
	}
	pending, err := settlementPending(db, state.Epoch)
	if err != nil {
		return nil, wrapStorage("load settlement runs", err)
	}
	if pending {
		return nil, ErrMarketClosed
	}
	return state, nil
}

// RecentTrades lists the trade log, most recent first. limit is clamped to
// the configured retention window; a non-positive limit returns the window.
func (e *Engine) RecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	if window := e.econ.Trading.MaxRecentTrades; limit <= 0 || limit > window {
		limit = window
	}
	trades, err := ledger.ListRecentTrades(e.db.WithContext(ctx), limit)
	if err != nil {
		return nil, wrapStorage("list trades", err)
	}
	return trades, nil
}

// AccountTrades lists one account's trades, most recent first.
func (e *Engine) AccountTrades(ctx context.Context, accountID int64, limit int) ([]models.Trade, error) {
	if window := e.econ.Trading.MaxRecentTrades; limit <= 0 || limit > window {
		limit = window
	}
	trades, err := ledger.ListAccountTrades(e.db.WithContext(ctx), accountID, limit)
	if err != nil {
		return nil, wrapStorage("list trades", err)
	}
	return trades, nil
}
