package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/akozyrev/stocktake/internal/models"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Login verifies credentials and issues a bearer token.
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	// Logout invalidates the given bearer token.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles HTTP requests for login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// LoginRequest represents the JSON payload for a login attempt.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles login requests. It expects a JSON body with
// non-empty "username" and "password" fields and returns a bearer
// token together with the authenticated user on success. Repeated
// failures for the same username lock the account out temporarily.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Logout invalidates the caller's bearer token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		writeFailure(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}
