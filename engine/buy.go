package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lmsrmarket/handlers/math/currency"
	"lmsrmarket/handlers/math/probabilities/lmsr"
	"lmsrmarket/models"
	"lmsrmarket/store/ledger"
	"lmsrmarket/store/marketstate"
)

// Buy issues qty shares of side to the account at the LMSR marginal cost.
// The balance debit, the holdings credit, the market quantity and the trade
// log entry are committed together or not at all.
func (e *Engine) Buy(ctx context.Context, accountID int64, side models.Side, qty decimal.Decimal) (*models.Trade, error) {
	if !qty.IsPositive() || !currency.FitsScale(qty) {
		return nil, ErrInvalidQuantity
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}

	release, err := e.gate.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var trade models.Trade
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// resolved is checked inside the same transaction as the commit so a
		// concurrent resolution can never let a trade land after it.
		state, err := marketstate.CurrentForUpdate(tx)
		if err != nil {
			return wrapStorage("load market state", err)
		}
		if state.Resolved {
			return ErrMarketClosed
		}
		// A journaled resolution whose payout has not landed yet already
		// fixes the outcome.
		pending, err := settlementPending(tx, state.Epoch)
		if err != nil {
			return wrapStorage("load settlement runs", err)
		}
		if pending {
			return ErrMarketClosed
		}

		account, err := ledger.GetAccountForUpdate(tx, accountID)
		if err != nil {
			return wrapStorage("load account", err)
		}

		qYes, qNo := currency.ToFloat(state.QYes), currency.ToFloat(state.QNo)
		shares := currency.ToFloat(qty)
		raw := e.maker.CostToBuy(qYes, qNo, shares, side)
		if !currency.IsFinite(raw) || raw < 0 {
			return ErrInvalidQuantity
		}
		cost := currency.Charge(raw)

		if account.Balance.LessThan(cost) {
			return &InsufficientBalanceError{Cost: cost, Balance: account.Balance}
		}

		if err := ledger.CreditDebit(tx, account, cost.Neg(), side, qty); err != nil {
			return wrapStorage("update account", err)
		}
		if err := marketstate.ApplyIssuance(tx, state, side, qty); err != nil {
			return wrapStorage("issue shares", err)
		}

		newYes, newNo := lmsr.After(qYes, qNo, shares, side)
		trade = models.Trade{
			AccountID:     account.ID,
			Side:          side,
			Quantity:      qty,
			Cost:          cost,
			PriceYesAfter: e.maker.PriceYes(newYes, newNo),
			Epoch:         state.Epoch,
		}
		if err := ledger.AppendTrade(tx, &trade); err != nil {
			return wrapStorage("append trade", err)
		}
		return nil
	})
	if err != nil {
		err = wrapStorage("commit trade", err)
		if errors.As(err, new(*StorageError)) {
			e.log.Error("buy failed", zap.Int64("account", accountID), zap.String("side", string(side)), zap.Error(err))
		}
		return nil, err
	}

	e.log.Info("trade executed",
		zap.Int64("trade", trade.ID),
		zap.Int64("account", accountID),
		zap.String("side", string(side)),
		zap.String("qty", qty.String()),
		zap.String("cost", trade.Cost.String()),
		zap.Float64("priceYes", trade.PriceYesAfter),
	)
	return &trade, nil
}
