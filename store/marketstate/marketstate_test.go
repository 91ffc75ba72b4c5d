package marketstate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmsrmarket/models"
	"lmsrmarket/models/modelstesting"
)

func TestCurrentSeedsOpenMarket(t *testing.T) {
	db := modelstesting.NewFakeDB(t)

	state, err := Current(db)
	require.NoError(t, err)
	assert.Equal(t, models.MarketStateID, state.ID)
	assert.True(t, state.QYes.IsZero())
	assert.True(t, state.QNo.IsZero())
	assert.False(t, state.Resolved)
	assert.Zero(t, state.Epoch)
}

func TestApplyIssuance(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	state, err := CurrentForUpdate(db)
	require.NoError(t, err)

	require.NoError(t, ApplyIssuance(db, state, models.SideYes, decimal.RequireFromString("2.5")))
	require.NoError(t, ApplyIssuance(db, state, models.SideNo, decimal.NewFromInt(1)))

	stored, err := Current(db)
	require.NoError(t, err)
	assert.True(t, stored.QYes.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, stored.QNo.Equal(decimal.NewFromInt(1)))
}

func TestResolveOncePerEpoch(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	state, err := Current(db)
	require.NoError(t, err)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Resolve(db, state, models.SideNo, at))
	assert.ErrorIs(t, Resolve(db, state, models.SideYes, at), ErrAlreadyResolved)
	assert.ErrorIs(t, ApplyIssuance(db, state, models.SideYes, decimal.NewFromInt(1)), ErrMarketClosed)

	stored, err := Current(db)
	require.NoError(t, err)
	assert.True(t, stored.Resolved)
	assert.Equal(t, models.SideNo, stored.Outcome)
	require.NotNil(t, stored.ResolvedAt)

	require.NoError(t, Reset(db, stored))
	reopened, err := Current(db)
	require.NoError(t, err)
	assert.False(t, reopened.Resolved)
	assert.Empty(t, reopened.Outcome)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Equal(t, int64(1), reopened.Epoch)
	assert.NoError(t, Resolve(db, reopened, models.SideYes, at))
}
