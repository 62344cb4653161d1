package domain

// TokenPair is the session grant: a short-lived access JWT and a
// longer-lived refresh JWT. ExpiresIn is derived from the access token's
// actual exp claim, not a configured constant.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}

// TwoFactorChallenge is returned instead of a TokenPair when correct primary
// credentials hit an account with 2FA enabled. The pending token can only be
// exchanged for a session by presenting a TOTP or backup code; it is
// rejected outright by the protected-resource gate.
type TwoFactorChallenge struct {
	TwoFactorRequired bool     `json:"two_factor_required"` // always true
	PendingToken      string   `json:"pending_token"`
	Methods           []string `json:"methods"` // e.g. ["totp", "backup_code"]
}

// LoginResult is the discriminated outcome of a successful credential check:
// exactly one of Tokens or Challenge is set.
type LoginResult struct {
	User      SafeUser            `json:"user"`
	Tokens    *TokenPair          `json:"tokens,omitempty"`
	Challenge *TwoFactorChallenge `json:"challenge,omitempty"`
}

// TwoFactorEnrollment is handed back by setup-initiation for the user to
// scan; the secret is not yet confirmed at this point.
type TwoFactorEnrollment struct {
	Secret          string `json:"secret"`           // base32, for manual entry
	ProvisioningURI string `json:"provisioning_uri"` // otpauth:// URL for QR rendering
	Issuer          string `json:"issuer"`
	Account         string `json:"account"`
}

// TwoFactorStatus summary exposed to the dashboard.
type TwoFactorStatusInfo struct {
	Enabled              bool `json:"enabled"`
	SetupPending         bool `json:"setup_pending"`
	BackupCodesRemaining int  `json:"backup_codes_remaining"`
}
