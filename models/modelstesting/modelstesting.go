// Package modelstesting provides throwaway databases and fixtures for tests.
package modelstesting

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lmsrmarket/migration"
	_ "lmsrmarket/migration/migrations"
	"lmsrmarket/models"
	"lmsrmarket/setup"
)

// NewFakeDB opens an in-memory SQLite database with every migration applied.
func NewFakeDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Each new connection to :memory: is a brand new database, so pin the
	// pool to a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migration.MigrateDB(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

var accountSeq atomic.Int64

// GenerateAccount returns an unsaved account with a random username and the
// given balance.
func GenerateAccount(balance float64) models.Account {
	b := decimal.NewFromFloat(balance)
	return models.Account{
		Username:        fmt.Sprintf("%s_%d", gofakeit.Username(), accountSeq.Add(1)),
		PasswordHash:    "not-a-real-hash",
		StartingBalance: b,
		Balance:         b,
		HoldingsYes:     decimal.Zero,
		HoldingsNo:      decimal.Zero,
	}
}

// CreateAccount saves a generated account and fails the test on error.
func CreateAccount(t *testing.T, db *gorm.DB, balance float64) *models.Account {
	t.Helper()
	account := GenerateAccount(balance)
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	return &account
}

// GenerateEconomicsConfig is the economics used across tests: b = 10,
// starting balance 100, short lock timeout and no settlement backoff.
func GenerateEconomicsConfig() *setup.EconomicsConfig {
	cfg, err := setup.LoadEconomicsConfig()
	if err != nil {
		panic(err)
	}
	cfg.Market.Liquidity = 10
	cfg.Accounts.StartingBalance = decimal.NewFromInt(100)
	cfg.Accounts.AdminStartingBalance = decimal.NewFromInt(1000)
	cfg.Settlement.BaseBackoff = 0
	cfg.Settlement.MaxAttempts = 3
	return cfg
}
