package engine

import (
	"context"

	"go.uber.org/zap"

	"lmsrmarket/models"
	"lmsrmarket/store/marketstate"
)

// RecoverSettlements finishes settlement runs left pending by a crash or by
// exhausted retries. Call it once on startup before serving traffic. Runs
// that no longer apply to the current epoch are abandoned.
func (e *Engine) RecoverSettlements(ctx context.Context) (int, error) {
	release, err := e.gate.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	db := e.db.WithContext(ctx)
	var pending []models.SettlementRun
	if err := db.Where("status = ?", models.SettlementPending).Order("created_at ASC").Find(&pending).Error; err != nil {
		return 0, wrapStorage("load pending settlements", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	state, err := marketstate.Current(db)
	if err != nil {
		return 0, wrapStorage("load market state", err)
	}

	recovered := 0
	for i := range pending {
		run := &pending[i]
		switch {
		case run.Epoch != state.Epoch:
			e.abandonRun(ctx, run, errRunSuperseded)
			e.log.Warn("abandoned stale settlement", zap.String("run", run.ID.String()), zap.Int64("epoch", run.Epoch))
			continue
		case state.Resolved && state.Outcome == run.Outcome:
			if err := e.completeRun(ctx, run); err != nil {
				return recovered, err
			}
			continue
		case state.Resolved:
			e.abandonRun(ctx, run, ErrAlreadyResolved)
			e.log.Warn("abandoned settlement for a different outcome", zap.String("run", run.ID.String()), zap.String("outcome", string(run.Outcome)))
			continue
		}

		e.log.Info("recovering settlement", zap.String("run", run.ID.String()), zap.String("outcome", string(run.Outcome)))
		if err := e.settle(ctx, run); err != nil {
			return recovered, err
		}
		recovered++
		state.Resolved = true
		state.Outcome = run.Outcome
	}
	return recovered, nil
}

// completeRun closes a run whose resolution is already in the market state.
func (e *Engine) completeRun(ctx context.Context, run *models.SettlementRun) error {
	now := e.now()
	run.Status = models.SettlementCompleted
	run.CompletedAt = &now
	err := e.db.WithContext(ctx).Model(&models.SettlementRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{"status": run.Status, "completed_at": now}).Error
	if err != nil {
		return wrapStorage("complete settlement run", err)
	}
	e.log.Info("settlement already applied", zap.String("run", run.ID.String()))
	return nil
}
