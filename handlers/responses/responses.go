// Package responses writes JSON bodies and maps engine errors to status codes.
package responses

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"lmsrmarket/engine"
	"lmsrmarket/middleware"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string           `json:"error"`
	Kind    string           `json:"kind,omitempty"`
	Cost    *decimal.Decimal `json:"cost,omitempty"`
	Balance *decimal.Decimal `json:"balance,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes a plain error message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// AuthError writes a failed authentication check.
func AuthError(w http.ResponseWriter, httpErr *middleware.HTTPError) {
	Error(w, httpErr.StatusCode, httpErr.Message)
}

// StatusFor maps an engine error kind to an HTTP status.
func StatusFor(kind engine.Kind) int {
	switch kind {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindState:
		return http.StatusConflict
	case engine.KindInsufficientBalance:
		return http.StatusPaymentRequired
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// EngineError writes err with the status its kind maps to. Storage failures
// are reported without their cause.
func EngineError(w http.ResponseWriter, err error) {
	kind := engine.KindOf(err)
	body := ErrorBody{Error: err.Error(), Kind: kind.String()}

	var insufficient *engine.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		body.Cost = &insufficient.Cost
		body.Balance = &insufficient.Balance
	case errors.Is(err, engine.ErrMarketBusy):
		body.Error = "Market is busy, try again"
	case kind == engine.KindStorage:
		body.Error = "Storage unavailable, nothing was changed"
	case kind == engine.KindUnknown:
		body.Error = "Internal error"
	}
	JSON(w, StatusFor(kind), body)
}
