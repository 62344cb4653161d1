package http

import (
	"encoding/json"
	"net/http"

	"github.com/codereach/platform/internal/auth/service"
	"github.com/codereach/platform/pkg/httpx"
)

// AuthHandler serves registration, login, and token refresh.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister handles POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	result, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, result)
}

// HandleLogin handles POST /v1/auth/login. Accounts with 2FA enabled get a
// challenge payload instead of tokens.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	result, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleRefresh handles POST /v1/auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	tokens, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokens)
}

// HandleMe handles GET /v1/auth/me for the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	user, err := h.AuthService.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

func writeInvalidBody(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:            "invalid_request",
		ErrorDescription: "Invalid JSON body",
	})
}
