package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStatus tracks a settlement run through its lifecycle.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCompleted SettlementStatus = "completed"
	// SettlementAbandoned marks a pending run superseded by a resolution to
	// a different outcome or by a reset.
	SettlementAbandoned SettlementStatus = "abandoned"
)

// SettlementRun is the journal row written before a resolution is applied.
// A run left pending after a crash is picked up again on startup.
type SettlementRun struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Epoch       int64            `json:"epoch" gorm:"not null;index"`
	Outcome     Side             `json:"outcome" gorm:"not null;size:3"`
	Status      SettlementStatus `json:"status" gorm:"not null;size:16;index"`
	Attempts    int              `json:"attempts" gorm:"not null;default:0"`
	LastError   string           `json:"lastError,omitempty" gorm:"size:1000"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// SettlementEntry records what happened to one account at resolution: the
// winning shares paid out and the losing shares burned.
type SettlementEntry struct {
	ID            int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID         uuid.UUID       `json:"runId" gorm:"type:uuid;not null;index"`
	AccountID     int64           `json:"accountId" gorm:"not null;index"`
	Outcome       Side            `json:"outcome" gorm:"not null;size:3"`
	WinningShares decimal.Decimal `json:"winningShares" gorm:"type:decimal(24,8);not null"`
	BurnedShares  decimal.Decimal `json:"burnedShares" gorm:"type:decimal(24,8);not null"`
	Payout        decimal.Decimal `json:"payout" gorm:"type:decimal(24,8);not null"`
	CreatedAt     time.Time       `json:"createdAt"`
}
