package migrations

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"lmsrmarket/migration"
)

func init() {
	if err := migration.Register("20261008_settlement_journal", Migration20261008SettlementJournal); err != nil {
		log.Fatalf("Failed to register migration 20261008_settlement_journal: %v", err)
	}
}

// SettlementRun model for migration
type SettlementRun struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Epoch       int64     `gorm:"not null;index"`
	Outcome     string    `gorm:"not null;size:3"`
	Status      string    `gorm:"not null;size:16;index"`
	Attempts    int       `gorm:"not null;default:0"`
	LastError   string    `gorm:"size:1000"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SettlementEntry model for migration
type SettlementEntry struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	RunID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID     int64           `gorm:"not null;index"`
	Outcome       string          `gorm:"not null;size:3"`
	WinningShares decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	BurnedShares  decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	Payout        decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	CreatedAt     time.Time
}

// Migration20261008SettlementJournal creates the settlement journal used to
// retry and recover resolutions
func Migration20261008SettlementJournal(db *gorm.DB) error {
	if err := db.AutoMigrate(&SettlementRun{}); err != nil {
		return err
	}
	return db.AutoMigrate(&SettlementEntry{})
}

// TableName specifies the table name for SettlementRun
func (SettlementRun) TableName() string {
	return "settlement_runs"
}

// TableName specifies the table name for SettlementEntry
func (SettlementEntry) TableName() string {
	return "settlement_entries"
}
