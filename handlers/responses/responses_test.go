package responses

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmsrmarket/engine"
)

func TestEngineErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{engine.ErrInvalidQuantity, http.StatusBadRequest},
		{engine.ErrInvalidSide, http.StatusBadRequest},
		{engine.ErrMarketClosed, http.StatusConflict},
		{fmt.Errorf("resolve: %w", engine.ErrAlreadyResolved), http.StatusConflict},
		{engine.ErrAccountNotFound, http.StatusNotFound},
		{&engine.StorageError{Op: "commit trade", Err: errors.New("disk full")}, http.StatusServiceUnavailable},
		{engine.ErrMarketBusy, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		EngineError(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestEngineErrorCarriesCost(t *testing.T) {
	rec := httptest.NewRecorder()
	EngineError(rec, &engine.InsufficientBalanceError{
		Cost:    decimal.RequireFromString("12.5"),
		Balance: decimal.RequireFromString("3"),
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Cost)
	assert.True(t, body.Cost.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "insufficient_balance", body.Kind)
}

func TestStorageErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	EngineError(rec, &engine.StorageError{Op: "commit trade", Err: errors.New("password=hunter2")})
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
