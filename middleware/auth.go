package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"lmsrmarket/models"
	"lmsrmarket/store/ledger"
)

// HTTPError is an auth failure ready to be written to the client.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// AccountLookup finds the account a token was issued to.
type AccountLookup interface {
	Account(ctx context.Context, id int64) (*models.Account, error)
}

// AccountClaims are the claims carried in a login token.
type AccountClaims struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// TokenTTL is how long a login token stays valid.
const TokenTTL = 24 * time.Hour

// IssueToken signs a token for account with HS256.
func IssueToken(account *models.Account, key []byte, now time.Time) (string, error) {
	claims := AccountClaims{
		AccountID: account.ID,
		Username:  account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(account.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ValidateTokenAndGetAccount checks the bearer token on r and loads the
// account it names.
func ValidateTokenAndGetAccount(r *http.Request, accounts AccountLookup, key []byte) (*models.Account, *HTTPError) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Authorization header with a Bearer token is required",
		}
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &AccountClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Invalid or expired token",
		}
	}

	account, err := accounts.Account(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, &HTTPError{
				StatusCode: http.StatusUnauthorized,
				Message:    "Account no longer exists",
			}
		}
		return nil, &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Could not load account",
		}
	}
	return account, nil
}

// ValidateAdmin is ValidateTokenAndGetAccount for admin-only routes.
func ValidateAdmin(r *http.Request, accounts AccountLookup, key []byte) (*models.Account, *HTTPError) {
	account, httpErr := ValidateTokenAndGetAccount(r, accounts, key)
	if httpErr != nil {
		return nil, httpErr
	}
	if !account.IsAdmin {
		return nil, &HTTPError{
			StatusCode: http.StatusForbidden,
			Message:    "Admin access required",
		}
	}
	return account, nil
}
