package ledger

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"lmsrmarket/models"
	"lmsrmarket/models/modelstesting"
)

func TestCreateAccountRejectsDuplicateUsername(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	account := modelstesting.GenerateAccount(100)
	require.NoError(t, CreateAccount(db, &account))

	dup := modelstesting.GenerateAccount(50)
	dup.Username = account.Username
	assert.ErrorIs(t, CreateAccount(db, &dup), ErrUsernameTaken)

	found, err := GetAccountByUsername(db, account.Username)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
}

func TestInsertAccountMapsUniqueViolation(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	account := modelstesting.GenerateAccount(100)
	require.NoError(t, insertAccount(db, &account))

	// A registration that raced past the count still lands on the index.
	dup := modelstesting.GenerateAccount(100)
	dup.Username = account.Username
	assert.ErrorIs(t, insertAccount(db, &dup), ErrUsernameTaken)
}

func TestConcurrentRegistrationsOfOneUsername(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	const attempts = 8

	var g errgroup.Group
	var created atomic.Int64
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			account := modelstesting.GenerateAccount(100)
			account.Username = "contested"
			err := CreateAccount(db, &account)
			if errors.Is(err, ErrUsernameTaken) {
				return nil
			}
			if err == nil {
				created.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), created.Load())
}

func TestGetAccountNotFound(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	_, err := GetAccount(db, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = GetAccountForUpdate(db, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreditDebitGuardsNegatives(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	account := modelstesting.CreateAccount(t, db, 10)

	require.NoError(t, CreditDebit(db, account, decimal.NewFromInt(-4), models.SideYes, decimal.NewFromInt(3)))
	err := CreditDebit(db, account, decimal.NewFromInt(-7), models.SideYes, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNegativeBalance)
	err = CreditDebit(db, account, decimal.Zero, models.SideNo, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrNegativeBalance)

	stored, err := GetAccount(db, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(6)))
	assert.True(t, stored.HoldingsYes.Equal(decimal.NewFromInt(3)))
	assert.True(t, stored.HoldingsNo.IsZero())
}

func TestTradesAreAppendOnlyAndNewestFirst(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	account := modelstesting.CreateAccount(t, db, 10)

	for i := 1; i <= 3; i++ {
		trade := &models.Trade{
			AccountID: account.ID,
			Side:      models.SideYes,
			Quantity:  decimal.NewFromInt(int64(i)),
			Cost:      decimal.NewFromInt(1),
		}
		require.NoError(t, AppendTrade(db, trade))
	}

	trades, err := ListRecentTrades(db, 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Quantity.Equal(decimal.NewFromInt(3)))

	assert.ErrorIs(t, AppendTrade(db, &trades[0]), ErrTradeImmutable)

	mine, err := ListAccountTrades(db, account.ID, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	none, err := ListAccountTrades(db, account.ID+1, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAuditBalancesAfterTrade(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	account := modelstesting.CreateAccount(t, db, 10)
	cost := decimal.RequireFromString("1.25")

	require.NoError(t, CreditDebit(db, account, cost.Neg(), models.SideNo, decimal.NewFromInt(2)))
	require.NoError(t, AppendTrade(db, &models.Trade{AccountID: account.ID, Side: models.SideNo, Quantity: decimal.NewFromInt(2), Cost: cost}))

	c, err := Audit(db)
	require.NoError(t, err)
	assert.True(t, c.Balanced())
	assert.True(t, c.TotalIssued.Equal(decimal.NewFromInt(10)))
	assert.True(t, c.TotalCollected.Equal(cost))
	assert.True(t, c.MarketMakerPnL().Equal(cost))
}

func TestReconcileFromTradeLog(t *testing.T) {
	db := modelstesting.NewFakeDB(t)
	account := modelstesting.CreateAccount(t, db, 10)
	require.NoError(t, CreditDebit(db, account, decimal.NewFromInt(-1), models.SideYes, decimal.NewFromInt(2)))
	require.NoError(t, AppendTrade(db, &models.Trade{AccountID: account.ID, Side: models.SideYes, Quantity: decimal.NewFromInt(2), Cost: decimal.NewFromInt(1)}))
	// An old epoch's trade is ignored.
	require.NoError(t, AppendTrade(db, &models.Trade{AccountID: account.ID, Side: models.SideNo, Quantity: decimal.NewFromInt(5), Cost: decimal.NewFromInt(1), Epoch: 7}))

	state := &models.MarketState{QYes: decimal.NewFromInt(2), QNo: decimal.Zero}
	rec, err := Reconcile(db, state)
	require.NoError(t, err)
	assert.True(t, rec.Consistent(), "drifts: %+v", rec.Drifts)

	state.Resolved = true
	rec, err = Reconcile(db, state)
	require.NoError(t, err)
	assert.False(t, rec.Consistent())
	require.Len(t, rec.Drifts, 1)
	assert.Equal(t, models.SideYes, rec.Drifts[0].Side)
}
