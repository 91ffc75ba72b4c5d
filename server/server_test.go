package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lmsrmarket/engine"
	"lmsrmarket/models/modelstesting"
)

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := modelstesting.NewFakeDB(t)
	eng := engine.New(db, modelstesting.GenerateEconomicsConfig(), zaptest.NewLogger(t))
	router, err := NewRouter(eng, Config{SigningKey: []byte("test-key"), AdminUsername: "root"})
	require.NoError(t, err)
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.RemoteAddr = "192.0.2.10:5000"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func (s *testServer) signup(username, password string) string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/v0/register", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	w, body := s.do(http.MethodPost, "/v0/login", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func balanceOf(t *testing.T, body map[string]interface{}) decimal.Decimal {
	t.Helper()
	account := body["account"].(map[string]interface{})
	b, err := decimal.NewFromString(account["balance"].(string))
	require.NoError(t, err)
	return b
}

func TestMarketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup("alice", "pass1234")
	root := s.signup("root", "rootpass")

	w, body := s.do(http.MethodGet, "/v0/market", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	market := body["market"].(map[string]interface{})
	assert.InDelta(t, 0.5, market["priceYes"].(float64), 1e-12)
	assert.NotEmpty(t, body["question"])

	w, body = s.do(http.MethodGet, "/v0/market/quote?side=yes&qty=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 2.8093, body["cost"].(float64), 1e-4)

	w, body = s.do(http.MethodPost, "/v0/buy", alice, map[string]string{"side": "YES", "qty": "5"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, balanceOf(t, body).LessThan(decimal.RequireFromString("97.191")))
	assert.True(t, balanceOf(t, body).GreaterThan(decimal.RequireFromString("97.190")))

	w, body = s.do(http.MethodGet, "/v0/market/trades?limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])

	w, _ = s.do(http.MethodPost, "/v0/admin/resolve", alice, map[string]string{"outcome": "yes"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.do(http.MethodPost, "/v0/admin/resolve", root, map[string]string{"outcome": "yes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	w, body = s.do(http.MethodPost, "/v0/admin/resolve", root, map[string]string{"outcome": "no"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "state", body["kind"])

	w, _ = s.do(http.MethodPost, "/v0/buy", alice, map[string]string{"side": "no", "qty": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = s.do(http.MethodGet, "/v0/account", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, balanceOf(t, body).GreaterThan(decimal.RequireFromString("102.19")))

	w, body = s.do(http.MethodGet, "/v0/admin/audit", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	audit := body["audit"].(map[string]interface{})
	assert.Equal(t, true, audit["balanced"])
	assert.Equal(t, true, audit["consistent"])
	assert.Equal(t, true, audit["withinBoundedLoss"])

	w, body = s.do(http.MethodGet, "/v0/admin/accounts", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ranked := body["accounts"].([]interface{})
	require.Len(t, ranked, 2)
	assert.Equal(t, "root", ranked[0].(map[string]interface{})["username"])

	w, body = s.do(http.MethodPost, "/v0/admin/reset", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["epoch"])

	w, _ = s.do(http.MethodPost, "/v0/buy", alice, map[string]string{"side": "no", "qty": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBuyErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	bob := s.signup("bob", "pass1234")

	w, _ := s.do(http.MethodPost, "/v0/buy", "", map[string]string{"side": "yes", "qty": "1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/v0/buy", bob, map[string]string{"side": "maybe", "qty": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/v0/buy", bob, map[string]string{"side": "yes", "qty": "-2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(http.MethodPost, "/v0/buy", bob, map[string]string{"side": "yes", "qty": "500"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	cost, err := decimal.NewFromString(body["cost"].(string))
	require.NoError(t, err)
	assert.True(t, cost.GreaterThan(decimal.NewFromInt(100)))

	w, _ = s.do(http.MethodGet, "/v0/market/quote?side=yes", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.signup("carol", "pass1234")

	w, _ := s.do(http.MethodPost, "/v0/register", "", map[string]string{"username": "carol", "password": "other123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/v0/register", "", map[string]string{"username": "ab", "password": "pass1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/v0/login", "", map[string]string{"username": "carol", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/v0/login", "", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
