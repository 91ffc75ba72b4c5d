package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"lmsrmarket/models"
	"lmsrmarket/store/ledger"
	"lmsrmarket/store/marketstate"
)

// AuditReport is the admin view of the ledger's health.
type AuditReport struct {
	Conservation   *ledger.Conservation   `json:"conservation"`
	Reconciliation *ledger.Reconciliation `json:"reconciliation"`
	Balanced       bool                   `json:"balanced"`
	Consistent     bool                   `json:"consistent"`
	MarketMakerPnL decimal.Decimal        `json:"marketMakerPnl"`
	// LossBound is the most the market maker may have lost across all
	// epochs so far: one b*ln2 subsidy per epoch.
	LossBound         decimal.Decimal `json:"lossBound"`
	WithinBoundedLoss bool            `json:"withinBoundedLoss"`
}

// Audit checks currency conservation, holdings against the trade log, and
// the market maker's bounded loss. It is read-only and takes the gate so
// it sees a state between mutations.
func (e *Engine) Audit(ctx context.Context) (*AuditReport, error) {
	release, err := e.gate.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	db := e.db.WithContext(ctx)
	state, err := marketstate.Current(db)
	if err != nil {
		return nil, wrapStorage("load market state", err)
	}
	conservation, err := ledger.Audit(db)
	if err != nil {
		return nil, wrapStorage("audit ledger", err)
	}
	rec, err := ledger.Reconcile(db, state)
	if err != nil {
		return nil, wrapStorage("reconcile holdings", err)
	}

	pnl := conservation.MarketMakerPnL()
	// Rounded up so the float subsidy never makes an honest ledger fail.
	bound := decimal.NewFromFloat(e.maker.MaxLoss()).Mul(decimal.NewFromInt(state.Epoch + 1)).RoundCeil(8)
	return &AuditReport{
		Conservation:      conservation,
		Reconciliation:    rec,
		Balanced:          conservation.Balanced(),
		Consistent:        rec.Consistent(),
		MarketMakerPnL:    pnl,
		LossBound:         bound,
		WithinBoundedLoss: pnl.Neg().LessThanOrEqual(bound),
	}, nil
}

// Reconcile rebuilds holdings from the trade log and reports any drift.
func (e *Engine) Reconcile(ctx context.Context) (*ledger.Reconciliation, error) {
	db := e.db.WithContext(ctx)
	state, err := marketstate.Current(db)
	if err != nil {
		return nil, wrapStorage("load market state", err)
	}
	rec, err := ledger.Reconcile(db, state)
	if err != nil {
		return nil, wrapStorage("reconcile holdings", err)
	}
	return rec, nil
}

// Settlements lists settlement runs, newest first.
func (e *Engine) Settlements(ctx context.Context) ([]models.SettlementRun, error) {
	var runs []models.SettlementRun
	if err := e.db.WithContext(ctx).Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, wrapStorage("list settlements", err)
	}
	return runs, nil
}
