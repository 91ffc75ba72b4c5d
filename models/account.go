package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a trader in the market: a currency balance plus share holdings
// on each side. Holdings are a cache of the trade log for the current epoch.
type Account struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:80"`
	PasswordHash string `json:"-" gorm:"not null;size:200"`
	IsAdmin      bool   `json:"isAdmin" gorm:"default:false"`

	// StartingBalance is the currency issued to the account at registration.
	StartingBalance decimal.Decimal `json:"startingBalance" gorm:"type:decimal(24,8);not null"`
	Balance         decimal.Decimal `json:"balance" gorm:"type:decimal(24,8);not null"`
	HoldingsYes     decimal.Decimal `json:"holdingsYes" gorm:"type:decimal(24,8);not null;default:0"`
	HoldingsNo      decimal.Decimal `json:"holdingsNo" gorm:"type:decimal(24,8);not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountPublic is what other traders and admins get to see.
type AccountPublic struct {
	ID          int64           `json:"id"`
	Username    string          `json:"username"`
	IsAdmin     bool            `json:"isAdmin"`
	Balance     decimal.Decimal `json:"balance"`
	HoldingsYes decimal.Decimal `json:"holdingsYes"`
	HoldingsNo  decimal.Decimal `json:"holdingsNo"`
}

// ToPublic converts Account to AccountPublic (hides the password hash)
func (a *Account) ToPublic() AccountPublic {
	return AccountPublic{
		ID:          a.ID,
		Username:    a.Username,
		IsAdmin:     a.IsAdmin,
		Balance:     a.Balance,
		HoldingsYes: a.HoldingsYes,
		HoldingsNo:  a.HoldingsNo,
	}
}

// Holdings returns the number of shares held on side.
func (a *Account) Holdings(side Side) decimal.Decimal {
	if side == SideYes {
		return a.HoldingsYes
	}
	return a.HoldingsNo
}

// AddHoldings credits (or debits, for negative qty) shares on side.
func (a *Account) AddHoldings(side Side, qty decimal.Decimal) {
	if side == SideYes {
		a.HoldingsYes = a.HoldingsYes.Add(qty)
		return
	}
	a.HoldingsNo = a.HoldingsNo.Add(qty)
}

// ClearHoldings zeroes both sides.
func (a *Account) ClearHoldings() {
	a.HoldingsYes = decimal.Zero
	a.HoldingsNo = decimal.Zero
}
