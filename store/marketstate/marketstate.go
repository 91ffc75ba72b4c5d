// Package marketstate owns the singleton market state row. Every function
// takes the *gorm.DB to run against so callers can pass a transaction.
package marketstate

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lmsrmarket/models"
)

var (
	ErrMarketClosed    = errors.New("market is resolved")
	ErrAlreadyResolved = errors.New("market already resolved")
)

// Current returns the market state, creating it with zero quantities on
// first access.
func Current(db *gorm.DB) (*models.MarketState, error) {
	return load(db, false)
}

// CurrentForUpdate is Current with a row lock, for use inside a transaction
// that is about to mutate the state. SQLite ignores the lock.
func CurrentForUpdate(tx *gorm.DB) (*models.MarketState, error) {
	return load(tx, true)
}

func load(db *gorm.DB, lock bool) (*models.MarketState, error) {
	query := func() *gorm.DB {
		q := db.Where("id = ?", models.MarketStateID)
		if lock {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return q
	}

	var state models.MarketState
	result := query().Limit(1).Find(&state)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 {
		return &state, nil
	}

	seed := models.MarketState{
		ID:   models.MarketStateID,
		QYes: decimal.Zero,
		QNo:  decimal.Zero,
	}
	// Two first callers may race here; the loser's insert is a no-op.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	if err := query().First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// ApplyIssuance adds qty newly issued shares on side. It is only valid while
// the market is open.
func ApplyIssuance(tx *gorm.DB, state *models.MarketState, side models.Side, qty decimal.Decimal) error {
	if state.Resolved {
		return ErrMarketClosed
	}
	if side == models.SideYes {
		state.QYes = state.QYes.Add(qty)
	} else {
		state.QNo = state.QNo.Add(qty)
	}
	return tx.Save(state).Error
}

// Resolve fixes the outcome. It succeeds once per epoch.
func Resolve(tx *gorm.DB, state *models.MarketState, outcome models.Side, at time.Time) error {
	if state.Resolved {
		return ErrAlreadyResolved
	}
	state.Resolved = true
	state.Outcome = outcome
	state.ResolvedAt = &at
	return tx.Save(state).Error
}

// Reset returns the market to its opening state and starts a new epoch.
func Reset(tx *gorm.DB, state *models.MarketState) error {
	state.QYes = decimal.Zero
	state.QNo = decimal.Zero
	state.Resolved = false
	state.Outcome = ""
	state.ResolvedAt = nil
	state.Epoch++
	return tx.Save(state).Error
}
