package http

// Request bodies accepted by the auth endpoints.

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TwoFactorVerifyRequest struct {
	PendingToken string `json:"pending_token"`
	Code         string `json:"code"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

// Response bodies.

type BackupCodesResponse struct {
	Codes []string `json:"codes"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
