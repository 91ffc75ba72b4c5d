// Package server wires the HTTP routes onto the market engine.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/adminhandlers"
	"lmsrmarket/handlers/marketshandlers"
	"lmsrmarket/handlers/trades/buying"
	"lmsrmarket/handlers/usershandlers"
	"lmsrmarket/middleware"
)

// Config is what the router needs beyond the engine.
type Config struct {
	SigningKey     []byte
	AdminUsername  string
	AllowedOrigins []string
}

// NewRouter builds the /v0 API.
func NewRouter(eng *engine.Engine, cfg Config) (http.Handler, error) {
	econ := eng.Economics()
	buyLimiter := middleware.NewRateLimiter(econ.Trading.BuyRatePerSecond, econ.Trading.BuyBurst)
	authLimiter := middleware.NewRateLimiter(econ.Trading.BuyRatePerSecond, econ.Trading.BuyBurst)

	marketHandler, err := marketshandlers.MarketHandler(eng, econ.Market)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()

	// Public
	router.HandleFunc("/v0/market", marketHandler).Methods(http.MethodGet)
	router.HandleFunc("/v0/market/trades", marketshandlers.TradesHandler(eng)).Methods(http.MethodGet)
	router.HandleFunc("/v0/market/quote", marketshandlers.QuoteHandler(eng)).Methods(http.MethodGet)
	router.Handle("/v0/register", authLimiter.ByClientIP(usershandlers.RegisterHandler(eng, cfg.AdminUsername))).Methods(http.MethodPost)
	router.Handle("/v0/login", authLimiter.ByClientIP(usershandlers.LoginHandler(eng, cfg.SigningKey))).Methods(http.MethodPost)

	// Traders
	router.HandleFunc("/v0/account", usershandlers.AccountHandler(eng, cfg.SigningKey)).Methods(http.MethodGet)
	router.HandleFunc("/v0/buy", buying.BuyHandler(eng, cfg.SigningKey, buyLimiter)).Methods(http.MethodPost)

	// Admin
	router.HandleFunc("/v0/admin/accounts", adminhandlers.AccountsHandler(eng, cfg.SigningKey)).Methods(http.MethodGet)
	router.HandleFunc("/v0/admin/resolve", adminhandlers.ResolveHandler(eng, cfg.SigningKey)).Methods(http.MethodPost)
	router.HandleFunc("/v0/admin/reset", adminhandlers.ResetHandler(eng, cfg.SigningKey)).Methods(http.MethodPost)
	router.HandleFunc("/v0/admin/audit", adminhandlers.AuditHandler(eng, cfg.SigningKey)).Methods(http.MethodGet)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(router), nil
}

// New returns an http.Server for handler on addr.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
