package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lmsrmarket/models"
	"lmsrmarket/store/marketstate"
)

// Reset zeroes the market quantities and every account's holdings, clears
// the resolution and starts a new epoch. Balances and the trade log are kept.
// Any settlement still pending for the old epoch is abandoned.
func (e *Engine) Reset(ctx context.Context) (*models.MarketState, error) {
	release, err := e.gate.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var state *models.MarketState
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		state, err = marketstate.CurrentForUpdate(tx)
		if err != nil {
			return err
		}
		if err := marketstate.Reset(tx, state); err != nil {
			return err
		}

		err = tx.Model(&models.Account{}).
			Where("1 = 1").
			Updates(map[string]interface{}{
				"holdings_yes": decimal.Zero,
				"holdings_no":  decimal.Zero,
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.SettlementRun{}).
			Where("status = ?", models.SettlementPending).
			Updates(map[string]interface{}{
				"status":     models.SettlementAbandoned,
				"last_error": errRunSuperseded.Error(),
			}).Error
	})
	if err != nil {
		err = wrapStorage("reset market", err)
		e.log.Error("reset failed", zap.Error(err))
		return nil, err
	}

	e.log.Info("market reset", zap.Int64("epoch", state.Epoch))
	return state, nil
}
