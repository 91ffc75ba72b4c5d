package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmsrmarket/models"
	"lmsrmarket/models/modelstesting"
)

func TestAuditAfterMixedTrading(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	alice := modelstesting.CreateAccount(t, db, 100)
	bob := modelstesting.CreateAccount(t, db, 100)

	buys := []struct {
		account *models.Account
		side    models.Side
		qty     string
	}{
		{alice, models.SideYes, "3"},
		{bob, models.SideNo, "1.25"},
		{alice, models.SideNo, "0.5"},
		{bob, models.SideYes, "7"},
	}
	for _, b := range buys {
		_, err := eng.Buy(ctx, b.account.ID, b.side, dec(b.qty))
		require.NoError(t, err)
	}

	report, err := eng.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, report.Consistent)
	assert.True(t, report.MarketMakerPnL.IsPositive())

	_, err = eng.Resolve(ctx, models.SideYes)
	require.NoError(t, err)

	report, err = eng.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, report.Consistent)
	assert.True(t, report.WithinBoundedLoss, "pnl %s bound %s", report.MarketMakerPnL, report.LossBound)
	assert.True(t, report.Conservation.TotalPaidOut.Equal(dec("10")))

	runs, err := eng.Settlements(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.SettlementCompleted, runs[0].Status)
}

func TestReconcileSpotsDrift(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := modelstesting.CreateAccount(t, db, 100)
	_, err := eng.Buy(ctx, account.ID, models.SideYes, dec("2"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", account.ID).Update("holdings_yes", dec("3")).Error)

	rec, err := eng.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, rec.Consistent())
	require.Len(t, rec.Drifts, 1)
	assert.Equal(t, account.ID, rec.Drifts[0].AccountID)
	assert.True(t, rec.Drifts[0].Expected.Equal(dec("2")))
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	assert.Zero(t, backoff(0, 3))
	assert.Equal(t, int64(100), int64(backoff(100, 1)))
	assert.Equal(t, int64(400), int64(backoff(100, 3)))
	assert.Equal(t, maxBackoff, backoff(maxBackoff, 4))
	assert.Equal(t, maxBackoff, backoff(1, 64))
}
