package adminhandlers

import (
	"encoding/json"
	"net/http"

	"lmsrmarket/engine"
	"lmsrmarket/handlers/responses"
	"lmsrmarket/middleware"
	"lmsrmarket/models"
)

// ResolveRequest is the request body for POST /v0/admin/resolve
type ResolveRequest struct {
	Outcome string `json:"outcome"`
}

// ResolveHandler handles POST /v0/admin/resolve
func ResolveHandler(eng *engine.Engine, signingKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, httpErr := middleware.ValidateAdmin(r, eng, signingKey); httpErr != nil {
			responses.AuthError(w, httpErr)
			return
		}

		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		outcome, ok := models.ParseSide(req.Outcome)
		if !ok {
			responses.EngineError(w, engine.ErrInvalidOutcome)
			return
		}

		run, err := eng.Resolve(r.Context(), outcome)
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"settlement": run,
		})
	}
}

// ResetHandler handles POST /v0/admin/reset
func ResetHandler(eng *engine.Engine, signingKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, httpErr := middleware.ValidateAdmin(r, eng, signingKey); httpErr != nil {
			responses.AuthError(w, httpErr)
			return
		}

		state, err := eng.Reset(r.Context())
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"epoch":   state.Epoch,
		})
	}
}

// AuditHandler handles GET /v0/admin/audit
func AuditHandler(eng *engine.Engine, signingKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, httpErr := middleware.ValidateAdmin(r, eng, signingKey); httpErr != nil {
			responses.AuthError(w, httpErr)
			return
		}

		report, err := eng.Audit(r.Context())
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		runs, err := eng.Settlements(r.Context())
		if err != nil {
			responses.EngineError(w, err)
			return
		}
		responses.JSON(w, http.StatusOK, map[string]interface{}{
			"audit":       report,
			"settlements": runs,
		})
	}
}
