package migrations

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"lmsrmarket/migration"
)

func init() {
	if err := migration.Register("20261001_market_core", Migration20261001MarketCore); err != nil {
		log.Fatalf("Failed to register migration 20261001_market_core: %v", err)
	}
}

// Account model for migration
type Account struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	Username        string          `gorm:"uniqueIndex;not null;size:80"`
	PasswordHash    string          `gorm:"not null;size:200"`
	IsAdmin         bool            `gorm:"default:false"`
	StartingBalance decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	Balance         decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	HoldingsYes     decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	HoldingsNo      decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MarketState model for migration
type MarketState struct {
	ID         int64           `gorm:"primaryKey"`
	QYes       decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	QNo        decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	Resolved   bool            `gorm:"not null;default:false"`
	Outcome    string          `gorm:"size:3"`
	Epoch      int64           `gorm:"not null;default:0"`
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Trade model for migration
type Trade struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	AccountID     int64           `gorm:"not null;index"`
	Side          string          `gorm:"not null;size:3"`
	Quantity      decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	Cost          decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	PriceYesAfter float64
	Epoch         int64 `gorm:"not null;index"`
	CreatedAt     time.Time
}

// Migration20261001MarketCore creates the accounts, market state and trade
// log tables
func Migration20261001MarketCore(db *gorm.DB) error {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&MarketState{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&Trade{}); err != nil {
		return err
	}

	// Recent trades are always read newest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at DESC)").Error; err != nil {
		return err
	}
	return nil
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// TableName specifies the table name for MarketState
func (MarketState) TableName() string {
	return "market_states"
}

// TableName specifies the table name for Trade
func (Trade) TableName() string {
	return "trades"
}
