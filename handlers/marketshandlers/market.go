package marketshandlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/math/probabilities/lmsr"
	"lmsrmarket/handlers/responses"
	"lmsrmarket/models"
	"lmsrmarket/setup"
)

// MarketResponse is the public market page.
type MarketResponse struct {
	Question        string           `json:"question"`
	DescriptionHTML string           `json:"descriptionHtml"`
	Market          *engine.Snapshot `json:"market"`
}

// RenderDescription turns the market's markdown description into sanitized
// HTML.
func RenderDescription(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return bluemonday.UGCPolicy().Sanitize(buf.String()), nil
}

// MarketHandler handles GET /v0/market
func MarketHandler(eng *engine.Engine, market setup.MarketConfig) (http.HandlerFunc, error) {
	description, err := RenderDescription(market.Description)
	if err != nil {
		return nil, err
	}
	question := bluemonday.StrictPolicy().Sanitize(market.Question)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snap, err := eng.Snapshot(r.Context())
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, MarketResponse{
			Question:        question,
			DescriptionHTML: description,
			Market:          snap,
		})
	}, nil
}

// TradesHandler handles GET /v0/market/trades?limit=
func TradesHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed <= 0 {
				responses.Error(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		trades, err := eng.RecentTrades(r.Context(), limit)
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, map[string]interface{}{
			"trades": trades,
			"count":  len(trades),
		})
	}
}

// QuoteHandler handles GET /v0/market/quote?side=yes&qty=5 or
// GET /v0/market/quote?side=yes&amount=10 to size a buy by budget.
func QuoteHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query()
		side, ok := models.ParseSide(query.Get("side"))
		if !ok {
			responses.EngineError(w, engine.ErrInvalidSide)
			return
		}

		qty, amount := query.Get("qty"), query.Get("amount")
		if (qty == "") == (amount == "") {
			responses.Error(w, http.StatusBadRequest, "Exactly one of qty or amount is required")
			return
		}
		raw := qty
		if amount != "" {
			raw = amount
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			responses.EngineError(w, engine.ErrInvalidQuantity)
			return
		}

		var quote *lmsr.BuySimulation
		if qty != "" {
			quote, err = eng.Quote(r.Context(), side, value)
		} else {
			quote, err = eng.QuoteBudget(r.Context(), side, value)
		}
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, quote)
	}
}
