package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lmsrmarket/models"
	"lmsrmarket/store/ledger"
)

// ErrUsernameTaken is returned by OpenAccount for a duplicate username.
var ErrUsernameTaken = ledger.ErrUsernameTaken

// OpenAccount registers a trader with the configured starting balance.
// Admins start with the admin balance. passwordHash is stored as given.
func (e *Engine) OpenAccount(ctx context.Context, username, passwordHash string, isAdmin bool) (*models.Account, error) {
	starting := e.econ.Accounts.StartingBalance
	if isAdmin {
		starting = e.econ.Accounts.AdminStartingBalance
	}
	account := &models.Account{
		Username:        username,
		PasswordHash:    passwordHash,
		IsAdmin:         isAdmin,
		StartingBalance: starting,
		Balance:         starting,
		HoldingsYes:     decimal.Zero,
		HoldingsNo:      decimal.Zero,
	}
	if err := ledger.CreateAccount(e.db.WithContext(ctx), account); err != nil {
		if errors.Is(err, ledger.ErrUsernameTaken) {
			return nil, err
		}
		return nil, wrapStorage("create account", err)
	}
	e.log.Info("account opened", zap.Int64("account", account.ID), zap.String("username", username), zap.Bool("admin", isAdmin))
	return account, nil
}

// Account loads an account by id.
func (e *Engine) Account(ctx context.Context, id int64) (*models.Account, error) {
	account, err := ledger.GetAccount(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, wrapStorage("load account", err)
	}
	return account, nil
}

// AccountByUsername loads an account by username.
func (e *Engine) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	account, err := ledger.GetAccountByUsername(e.db.WithContext(ctx), username)
	if err != nil {
		return nil, wrapStorage("load account", err)
	}
	return account, nil
}

// Accounts lists every account.
func (e *Engine) Accounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := ledger.ListAccounts(e.db.WithContext(ctx))
	if err != nil {
		return nil, wrapStorage("list accounts", err)
	}
	return accounts, nil
}
