package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable entry in the append-only trade log. One row is
// written for every successful buy.
type Trade struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	AccountID int64           `json:"accountId" gorm:"not null;index"`
	Side      Side            `json:"side" gorm:"not null;size:3"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(24,8);not null"`
	// Cost is the amount debited from the account for this trade.
	Cost          decimal.Decimal `json:"cost" gorm:"type:decimal(24,8);not null"`
	PriceYesAfter float64         `json:"priceYesAfter"`
	Epoch         int64           `json:"epoch" gorm:"not null;index"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index:idx_trades_created_at,sort:desc"`
}

// AveragePrice is the realised price per share.
func (t *Trade) AveragePrice() decimal.Decimal {
	if t.Quantity.IsZero() {
		return decimal.Zero
	}
	return t.Cost.DivRound(t.Quantity, 8)
}
