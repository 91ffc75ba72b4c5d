package buying

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/responses"
	"lmsrmarket/middleware"
	"lmsrmarket/models"
)

var validate = validator.New()

// BuyRequest is the request body for POST /v0/buy
type BuyRequest struct {
	Side     string          `json:"side" validate:"required,max=8"`
	Quantity decimal.Decimal `json:"qty"`
}

// BuyResponse is returned after a buy is committed
type BuyResponse struct {
	Trade        *models.Trade        `json:"trade"`
	AveragePrice decimal.Decimal      `json:"averagePrice"`
	Account      models.AccountPublic `json:"account"`
	Market       *engine.Snapshot     `json:"market"`
}

// BuyHandler handles POST /v0/buy
func BuyHandler(eng *engine.Engine, signingKey []byte, limiter *middleware.RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		account, httpErr := middleware.ValidateTokenAndGetAccount(r, eng, signingKey)
		if httpErr != nil {
			responses.AuthError(w, httpErr)
			return
		}
		if !limiter.Allow(fmt.Sprint(account.ID)) {
			responses.Error(w, http.StatusTooManyRequests, "Too many buys, slow down")
			return
		}

		var req BuyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			responses.EngineError(w, engine.ErrInvalidSide)
			return
		}
		side, ok := models.ParseSide(req.Side)
		if !ok {
			responses.EngineError(w, engine.ErrInvalidSide)
			return
		}

		trade, err := eng.Buy(r.Context(), account.ID, side, req.Quantity)
		if err != nil {
			responses.EngineError(w, err)
			return
		}

		response := BuyResponse{Trade: trade, AveragePrice: trade.AveragePrice()}
		// The trade is committed; a failed read-back only thins the response.
		if updated, err := eng.Account(r.Context(), account.ID); err == nil {
			response.Account = updated.ToPublic()
		}
		if snap, err := eng.Snapshot(r.Context()); err == nil {
			response.Market = snap
		}
		responses.JSON(w, http.StatusCreated, response)
	}
}
