package usershandlers

import (
	"net/http"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/responses"
	"lmsrmarket/middleware"
	"lmsrmarket/models"
)

// AccountResponse is the signed-in trader's own view.
type AccountResponse struct {
	Account models.AccountPublic `json:"account"`
	Trades  []models.Trade       `json:"trades"`
}

// AccountHandler handles GET /v0/account
func AccountHandler(eng *engine.Engine, signingKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		account, httpErr := middleware.ValidateTokenAndGetAccount(r, eng, signingKey)
		if httpErr != nil {
			responses.AuthError(w, httpErr)
			return
		}

		trades, err := eng.AccountTrades(r.Context(), account.ID, 0)
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, AccountResponse{Account: account.ToPublic(), Trades: trades})
	}
}
