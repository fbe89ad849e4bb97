package handler

import (
	"encoding/json"
	"net/http"

	"account-ledger/internal/auth"
	"account-ledger/internal/errors"
)

type AuthHandler struct {
	manager *auth.Manager
}

func NewAuthHandler(manager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		manager: manager,
	}
}

type LoginRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	AuthCode      string `json:"auth_code"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	result, err := h.manager.Login(r.Context(), req.Name, req.AccountNumber, req.AuthCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout is advisory: tokens are stateless and self-expiring, so the server
// holds no session to tear down. Clients discard the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
