package adminhandlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/responses"
	"lmsrmarket/middleware"
)

// RankedAccount is one row of the balance ranking.
type RankedAccount struct {
	Rank            int64           `json:"rank"`
	ID              int64           `json:"id"`
	Username        string          `json:"username"`
	IsAdmin         bool            `json:"isAdmin"`
	Balance         decimal.Decimal `json:"balance"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	HoldingsYes     decimal.Decimal `json:"holdingsYes"`
	HoldingsNo      decimal.Decimal `json:"holdingsNo"`
	ProfitLoss      decimal.Decimal `json:"profitLoss"`
}

// AccountsHandler handles GET /v0/admin/accounts?page=&pageSize=
func AccountsHandler(eng *engine.Engine, signingKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, httpErr := middleware.ValidateAdmin(r, eng, signingKey); httpErr != nil {
			responses.AuthError(w, httpErr)
			return
		}

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
				page = parsed
			}
		}

		pageSize := 50
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 200 {
				pageSize = parsed
			}
		}

		accounts, err := eng.Accounts(r.Context())
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		sort.SliceStable(accounts, func(i, j int) bool {
			return accounts[i].Balance.GreaterThan(accounts[j].Balance)
		})

		offset := (page - 1) * pageSize
		if offset > len(accounts) {
			offset = len(accounts)
		}
		end := offset + pageSize
		if end > len(accounts) {
			end = len(accounts)
		}

		entries := make([]RankedAccount, 0, end-offset)
		for i, a := range accounts[offset:end] {
			entries = append(entries, RankedAccount{
				Rank:            int64(offset + i + 1),
				ID:              a.ID,
				Username:        a.Username,
				IsAdmin:         a.IsAdmin,
				Balance:         a.Balance,
				StartingBalance: a.StartingBalance,
				HoldingsYes:     a.HoldingsYes,
				HoldingsNo:      a.HoldingsNo,
				ProfitLoss:      a.Balance.Sub(a.StartingBalance),
			})
		}

		responses.JSON(w, http.StatusOK, map[string]interface{}{
			"accounts": entries,
			"page":     page,
			"pageSize": pageSize,
			"total":    len(accounts),
		})
	}
}
