package http

import (
	"encoding/json"
	"net/http"

	"github.com/codereach/platform/internal/auth/service"
	"github.com/codereach/platform/pkg/httpx"
)

// MFAHandler serves the two-factor lifecycle and the challenge-completion
// endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleSetup handles POST /v1/2fa/setup. Returns the secret and
// provisioning URI for the authenticator app; 2FA is not enabled yet.
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	enrollment, err := h.MFAService.SetupTwoFactor(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollment)
}

// HandleEnable handles POST /v1/2fa/enable. On success the response carries
// the plaintext backup codes; they are not recoverable afterwards.
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	var req TwoFactorCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	codes, err := h.MFAService.EnableTwoFactor(r.Context(), userID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, BackupCodesResponse{Codes: codes})
}

// HandleDisable handles DELETE /v1/2fa. The code may be a TOTP code or a
// backup code.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	var req TwoFactorCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.MFAService.DisableTwoFactor(r.Context(), userID, req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "two-factor authentication disabled",
	})
}

// HandleVerify handles POST /v1/auth/2fa/verify, completing a challenged
// login with a TOTP code.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req TwoFactorVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	result, err := h.MFAService.VerifyTwoFactor(r.Context(), req.PendingToken, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleVerifyBackup handles POST /v1/auth/2fa/verify-backup, completing a
// challenged login with a single-use recovery code.
func (h *MFAHandler) HandleVerifyBackup(w http.ResponseWriter, r *http.Request) {
	var req TwoFactorVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	result, err := h.MFAService.VerifyBackupCode(r.Context(), req.PendingToken, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleRegenerateBackupCodes handles POST /v1/2fa/backup-codes. The entire
// previous set is invalidated wholesale.
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	codes, err := h.MFAService.RegenerateBackupCodes(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, BackupCodesResponse{Codes: codes})
}

// HandleStatus handles GET /v1/2fa/status.
func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	status, err := h.MFAService.TwoFactorStatus(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, status)
}
