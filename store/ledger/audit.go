package ledger

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lmsrmarket/models"
)

// HoldingsDrift is a mismatch between an account's stored holdings and what
// the trade log says it should hold.
type HoldingsDrift struct {
	AccountID int64           `json:"accountId"`
	Side      models.Side     `json:"side"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
}

// Reconciliation compares the holdings cache and the market quantities with
// the trade log of the current epoch.
type Reconciliation struct {
	Epoch       int64           `json:"epoch"`
	QYesFromLog decimal.Decimal `json:"qYesFromLog"`
	QNoFromLog  decimal.Decimal `json:"qNoFromLog"`
	QYesStored  decimal.Decimal `json:"qYesStored"`
	QNoStored   decimal.Decimal `json:"qNoStored"`
	Drifts      []HoldingsDrift `json:"drifts"`
}

// Consistent reports whether nothing drifted.
func (r *Reconciliation) Consistent() bool {
	return len(r.Drifts) == 0 && r.QYesFromLog.Equal(r.QYesStored) && r.QNoFromLog.Equal(r.QNoStored)
}

type position struct {
	yes, no decimal.Decimal
}

// Reconcile rebuilds holdings from the trades of state's epoch. Once the
// market is resolved every holding is expected to be zero, while the market
// quantities still match the log.
func Reconcile(db *gorm.DB, state *models.MarketState) (*Reconciliation, error) {
	var trades []models.Trade
	if err := db.Where("epoch = ?", state.Epoch).Find(&trades).Error; err != nil {
		return nil, err
	}

	rec := &Reconciliation{
		Epoch:       state.Epoch,
		QYesFromLog: decimal.Zero,
		QNoFromLog:  decimal.Zero,
		QYesStored:  state.QYes,
		QNoStored:   state.QNo,
		Drifts:      []HoldingsDrift{},
	}
	positions := make(map[int64]*position)
	for _, t := range trades {
		p, ok := positions[t.AccountID]
		if !ok {
			p = &position{yes: decimal.Zero, no: decimal.Zero}
			positions[t.AccountID] = p
		}
		if t.Side == models.SideYes {
			p.yes = p.yes.Add(t.Quantity)
			rec.QYesFromLog = rec.QYesFromLog.Add(t.Quantity)
		} else {
			p.no = p.no.Add(t.Quantity)
			rec.QNoFromLog = rec.QNoFromLog.Add(t.Quantity)
		}
	}

	accounts, err := ListAccounts(db)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		expected := position{yes: decimal.Zero, no: decimal.Zero}
		if p, ok := positions[a.ID]; ok && !state.Resolved {
			expected = *p
		}
		if !a.HoldingsYes.Equal(expected.yes) {
			rec.Drifts = append(rec.Drifts, HoldingsDrift{AccountID: a.ID, Side: models.SideYes, Stored: a.HoldingsYes, Expected: expected.yes})
		}
		if !a.HoldingsNo.Equal(expected.no) {
			rec.Drifts = append(rec.Drifts, HoldingsDrift{AccountID: a.ID, Side: models.SideNo, Stored: a.HoldingsNo, Expected: expected.no})
		}
	}
	return rec, nil
}

// Conservation sums every flow of currency through the ledger. Money is
// only ever issued at registration, moved to the market maker by trades and
// moved back by settlement payouts, so
// TotalIssued == TotalBalance + TotalCollected - TotalPaidOut must hold exactly.
type Conservation struct {
	TotalIssued    decimal.Decimal `json:"totalIssued"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
	TotalPaidOut   decimal.Decimal `json:"totalPaidOut"`
}

// Balanced reports whether the conservation equation holds.
func (c *Conservation) Balanced() bool {
	return c.TotalIssued.Equal(c.TotalBalance.Add(c.TotalCollected).Sub(c.TotalPaidOut))
}

// MarketMakerPnL is what the market maker has kept so far.
func (c *Conservation) MarketMakerPnL() decimal.Decimal {
	return c.TotalCollected.Sub(c.TotalPaidOut)
}

// Audit computes the conservation totals.
func Audit(db *gorm.DB) (*Conservation, error) {
	var accounts []models.Account
	if err := db.Select("id", "starting_balance", "balance").Find(&accounts).Error; err != nil {
		return nil, err
	}
	var trades []models.Trade
	if err := db.Select("id", "cost").Find(&trades).Error; err != nil {
		return nil, err
	}
	var entries []models.SettlementEntry
	if err := db.Select("id", "payout").Find(&entries).Error; err != nil {
		return nil, err
	}

	c := &Conservation{
		TotalIssued:    decimal.Zero,
		TotalBalance:   decimal.Zero,
		TotalCollected: decimal.Zero,
		TotalPaidOut:   decimal.Zero,
	}
	for _, a := range accounts {
		c.TotalIssued = c.TotalIssued.Add(a.StartingBalance)
		c.TotalBalance = c.TotalBalance.Add(a.Balance)
	}
	for _, t := range trades {
		c.TotalCollected = c.TotalCollected.Add(t.Cost)
	}
	for _, e := range entries {
		c.TotalPaidOut = c.TotalPaidOut.Add(e.Payout)
	}
	return c, nil
}
