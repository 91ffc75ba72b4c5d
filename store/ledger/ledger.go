// Package ledger records account balances, share holdings and the
// append-only trade log.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lmsrmarket/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already taken")
	// ErrNegativeBalance guards the invariant that no mutation may leave an
	// account with a negative balance or negative holdings.
	ErrNegativeBalance = errors.New("mutation would leave a negative balance or holdings")
	ErrTradeImmutable  = errors.New("trades are append-only")
)

// GetAccount loads an account by id.
func GetAccount(db *gorm.DB, id int64) (*models.Account, error) {
	return getAccount(db.Where("id = ?", id))
}

// GetAccountForUpdate is GetAccount with a row lock.
func GetAccountForUpdate(tx *gorm.DB, id int64) (*models.Account, error) {
	return getAccount(tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetAccountByUsername loads an account by its unique username.
func GetAccountByUsername(db *gorm.DB, username string) (*models.Account, error) {
	return getAccount(db.Where("username = ?", username))
}

func getAccount(query *gorm.DB) (*models.Account, error) {
	var account models.Account
	result := query.Limit(1).Find(&account)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

// CreateAccount inserts a new account. Usernames are unique.
func CreateAccount(db *gorm.DB, account *models.Account) error {
	var count int64
	if err := db.Model(&models.Account{}).Where("username = ?", account.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	return insertAccount(db, account)
}

// insertAccount relies on the unique index for registrations that race past
// the count. The connection must be opened with TranslateError.
func insertAccount(db *gorm.DB, account *models.Account) error {
	err := db.Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	return err
}

// ListAccounts returns every account ordered by id.
func ListAccounts(db *gorm.DB) ([]models.Account, error) {
	var accounts []models.Account
	if err := db.Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListAccountsForUpdate is ListAccounts with row locks, used by settlement.
func ListAccountsForUpdate(tx *gorm.DB) ([]models.Account, error) {
	var accounts []models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreditDebit applies deltaBalance to the balance and deltaHoldings to the
// holdings on side, then saves the account. Run it inside the same
// transaction as the market state change and the trade append.
func CreditDebit(tx *gorm.DB, account *models.Account, deltaBalance decimal.Decimal, side models.Side, deltaHoldings decimal.Decimal) error {
	newBalance := account.Balance.Add(deltaBalance)
	newHoldings := account.Holdings(side).Add(deltaHoldings)
	if newBalance.IsNegative() || newHoldings.IsNegative() {
		return fmt.Errorf("%w: account %d", ErrNegativeBalance, account.ID)
	}
	account.Balance = newBalance
	account.AddHoldings(side, deltaHoldings)
	return tx.Save(account).Error
}

// AppendTrade writes a new entry to the trade log.
func AppendTrade(tx *gorm.DB, trade *models.Trade) error {
	if trade.ID != 0 {
		return ErrTradeImmutable
	}
	return tx.Create(trade).Error
}

// ListRecentTrades returns up to limit trades, most recent first.
func ListRecentTrades(db *gorm.DB, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	if err := db.Order("created_at DESC, id DESC").Limit(limit).Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// ListAccountTrades returns an account's trades, most recent first.
func ListAccountTrades(db *gorm.DB, accountID int64, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}
