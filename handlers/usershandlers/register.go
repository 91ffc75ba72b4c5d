package usershandlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/responses"
	"lmsrmarket/middleware"
	"lmsrmarket/models"
)

var (
	validate  = validator.New()
	sanitizer = bluemonday.StrictPolicy()
)

// RegisterRequest is the request body for account registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80,printascii"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

// RegisterHandler handles POST /v0/register. Registering as adminUsername
// grants admin rights and the admin starting balance.
func RegisterHandler(eng *engine.Engine, adminUsername string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if err := validate.Struct(req); err != nil {
			responses.Error(w, http.StatusBadRequest, "Username must be 3-80 characters and password at least 4")
			return
		}
		if sanitizer.Sanitize(req.Username) != req.Username {
			responses.Error(w, http.StatusBadRequest, "Username contains markup")
			return
		}

		hash, err := middleware.HashPassword(req.Password)
		if err != nil {
			responses.Error(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		isAdmin := adminUsername != "" && req.Username == adminUsername
		account, err := eng.OpenAccount(r.Context(), req.Username, hash, isAdmin)
		if err != nil {
			if errors.Is(err, engine.ErrUsernameTaken) {
				responses.Error(w, http.StatusConflict, "Username taken")
				return
			}
			responses.EngineError(w, err)
			return
		}

		responses.JSON(w, http.StatusCreated, map[string]interface{}{
			"account": account.ToPublic(),
		})
	}
}

// LoginRequest is the request body for POST /v0/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token for later requests.
type LoginResponse struct {
	Token   string               `json:"token"`
	Account models.AccountPublic `json:"account"`
}

// LoginHandler handles POST /v0/login
func LoginHandler(eng *engine.Engine, signingKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			responses.Error(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		account, err := eng.AccountByUsername(r.Context(), strings.TrimSpace(req.Username))
		if err != nil && !errors.Is(err, engine.ErrAccountNotFound) {
			responses.EngineError(w, err)
			return
		}
		if account == nil || !middleware.CheckPassword(account.PasswordHash, req.Password) {
			responses.Error(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		token, err := middleware.IssueToken(account, signingKey, eng.Now())
		if err != nil {
			responses.Error(w, http.StatusInternalServerError, "Failed to issue token")
			return
		}
		responses.JSON(w, http.StatusOK, LoginResponse{Token: token, Account: account.ToPublic()})
	}
}
