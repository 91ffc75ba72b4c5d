package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lmsrmarket/models"
	"lmsrmarket/store/ledger"
	"lmsrmarket/store/marketstate"
)

const maxBackoff = 30 * time.Second

// errRunSuperseded means a reset started a new epoch after the run was
// journaled, so the run no longer applies.
var errRunSuperseded = errors.New("settlement run superseded by a reset")

// Resolve closes the market on outcome and settles every account: winning
// shares pay one unit each, then both holdings are zeroed. Authorization is
// the caller's job.
//
// Settlement is journaled before it is applied and retried with backoff on
// storage failures. A retry never pays twice; resolving an already resolved
// market returns ErrAlreadyResolved and changes nothing.
func (e *Engine) Resolve(ctx context.Context, outcome models.Side) (*models.SettlementRun, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	release, err := e.gate.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := marketstate.Current(e.db.WithContext(ctx))
	if err != nil {
		return nil, wrapStorage("load market state", err)
	}
	if state.Resolved {
		return nil, ErrAlreadyResolved
	}

	run, err := e.openRun(ctx, state.Epoch, outcome)
	if err != nil {
		return nil, err
	}
	if err := e.settle(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// openRun journals a pending settlement. A pending run left behind by an
// earlier failed attempt for the same epoch is reused when the outcome
// matches and abandoned otherwise.
func (e *Engine) openRun(ctx context.Context, epoch int64, outcome models.Side) (*models.SettlementRun, error) {
	db := e.db.WithContext(ctx)

	var pending []models.SettlementRun
	if err := db.Where("status = ? AND epoch = ?", models.SettlementPending, epoch).Order("created_at ASC").Find(&pending).Error; err != nil {
		return nil, wrapStorage("load settlement runs", err)
	}
	for i := range pending {
		run := &pending[i]
		if run.Outcome == outcome {
			return run, nil
		}
		run.Status = models.SettlementAbandoned
		if err := db.Save(run).Error; err != nil {
			return nil, wrapStorage("abandon settlement run", err)
		}
		e.log.Warn("abandoned pending settlement", zap.String("run", run.ID.String()), zap.String("outcome", string(run.Outcome)))
	}

	run := &models.SettlementRun{
		ID:      uuid.New(),
		Epoch:   epoch,
		Outcome: outcome,
		Status:  models.SettlementPending,
	}
	if err := db.Create(run).Error; err != nil {
		return nil, wrapStorage("journal settlement", err)
	}
	return run, nil
}

// settle applies run, retrying storage failures. The caller holds the gate.
func (e *Engine) settle(ctx context.Context, run *models.SettlementRun) error {
	maxAttempts := e.econ.Settlement.MaxAttempts
	for attempt := 1; ; attempt++ {
		err := e.applySettlement(ctx, run)
		if err == nil {
			e.log.Info("market resolved",
				zap.String("run", run.ID.String()),
				zap.String("outcome", string(run.Outcome)),
				zap.Int64("epoch", run.Epoch),
				zap.Int("attempts", attempt),
			)
			return nil
		}
		if errors.Is(err, ErrAlreadyResolved) || errors.Is(err, errRunSuperseded) {
			e.abandonRun(ctx, run, err)
			if errors.Is(err, errRunSuperseded) {
				return ErrMarketClosed
			}
			return err
		}

		e.recordAttempt(ctx, run, err)
		e.log.Warn("settlement attempt failed",
			zap.String("run", run.ID.String()),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err),
		)
		if attempt >= maxAttempts {
			return &StorageError{Op: "settle market", Err: err}
		}
		if err := e.sleep(ctx, backoff(e.econ.Settlement.BaseBackoff, attempt)); err != nil {
			return &StorageError{Op: "settle market", Err: err}
		}
	}
}

// applySettlement runs the whole payout in one transaction.
func (e *Engine) applySettlement(ctx context.Context, run *models.SettlementRun) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := marketstate.CurrentForUpdate(tx)
		if err != nil {
			return err
		}
		if state.Epoch != run.Epoch {
			return errRunSuperseded
		}
		if state.Resolved {
			// An earlier attempt may have committed even though its result
			// never reached us. The run status tells.
			var journaled models.SettlementRun
			if err := tx.Where("id = ?", run.ID).First(&journaled).Error; err != nil {
				return err
			}
			if journaled.Status == models.SettlementCompleted {
				*run = journaled
				return nil
			}
			return ErrAlreadyResolved
		}

		accounts, err := ledger.ListAccountsForUpdate(tx)
		if err != nil {
			return err
		}
		losing := run.Outcome.Opposite()
		for i := range accounts {
			account := &accounts[i]
			winning := account.Holdings(run.Outcome)
			burned := account.Holdings(losing)
			if winning.IsZero() && burned.IsZero() {
				continue
			}

			account.Balance = account.Balance.Add(winning)
			account.ClearHoldings()
			if err := tx.Save(account).Error; err != nil {
				return err
			}
			entry := models.SettlementEntry{
				RunID:         run.ID,
				AccountID:     account.ID,
				Outcome:       run.Outcome,
				WinningShares: winning,
				BurnedShares:  burned,
				Payout:        winning,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		now := e.now()
		if err := marketstate.Resolve(tx, state, run.Outcome, now); err != nil {
			return err
		}

		completed := *run
		completed.Status = models.SettlementCompleted
		completed.Attempts++
		completed.LastError = ""
		completed.CompletedAt = &now
		if err := tx.Save(&completed).Error; err != nil {
			return err
		}
		*run = completed
		return nil
	})
}

// recordAttempt notes a failed attempt on the journal. It is best effort:
// the store just failed, so this write may fail too.
func (e *Engine) recordAttempt(ctx context.Context, run *models.SettlementRun, cause error) {
	run.Attempts++
	run.LastError = truncate(cause.Error(), 1000)
	err := e.db.WithContext(ctx).Model(&models.SettlementRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{"attempts": run.Attempts, "last_error": run.LastError}).Error
	if err != nil {
		e.log.Error("failed to journal settlement attempt", zap.String("run", run.ID.String()), zap.Error(err))
	}
}

func (e *Engine) abandonRun(ctx context.Context, run *models.SettlementRun, cause error) {
	run.Status = models.SettlementAbandoned
	run.LastError = truncate(cause.Error(), 1000)
	err := e.db.WithContext(ctx).Model(&models.SettlementRun{}).
		Where("id = ? AND status = ?", run.ID, models.SettlementPending).
		Updates(map[string]interface{}{"status": run.Status, "last_error": run.LastError}).Error
	if err != nil {
		e.log.Error("failed to abandon settlement run", zap.String("run", run.ID.String()), zap.Error(err))
	}
}

// settlementPending reports whether a resolution for epoch has been
// journaled but not yet applied.
func settlementPending(db *gorm.DB, epoch int64) (bool, error) {
	var count int64
	err := db.Model(&models.SettlementRun{}).
		Where("status = ? AND epoch = ?", models.SettlementPending, epoch).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// backoff doubles base for every failed attempt, capped at maxBackoff.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt > 30 {
		return maxBackoff
	}
	d := base * time.Duration(1<<(attempt-1))
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
