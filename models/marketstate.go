package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketStateID is the primary key of the one and only market state row.
const MarketStateID int64 = 1

// MarketState holds the cumulative shares issued on each side and the
// resolution status. Exactly one row exists for the lifetime of the market.
type MarketState struct {
	ID       int64           `json:"id" gorm:"primaryKey"`
	QYes     decimal.Decimal `json:"qYes" gorm:"type:decimal(24,8);not null;default:0"`
	QNo      decimal.Decimal `json:"qNo" gorm:"type:decimal(24,8);not null;default:0"`
	Resolved bool            `json:"resolved" gorm:"not null;default:false"`
	Outcome  Side            `json:"outcome,omitempty" gorm:"size:3"`

	// Epoch is bumped by every administrative reset. Trades carry the epoch
	// they were placed in so holdings can be rebuilt from the log.
	Epoch      int64      `json:"epoch" gorm:"not null;default:0"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Quantity returns the outstanding shares issued on side.
func (m *MarketState) Quantity(side Side) decimal.Decimal {
	if side == SideYes {
		return m.QYes
	}
	return m.QNo
}
