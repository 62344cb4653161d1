package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type markers embedded in the "type" claim. Access tokens carry no
// marker; anything else must never pass the protected-resource gate.
const (
	TokenTypeAccess     = ""
	TokenTypeRefresh    = "refresh"
	TokenTypePending2FA = "2fa"
)

// Default token TTLs. Overridable per-service via config.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultPendingTokenTTL = 5 * time.Minute
)

// Claims are the token claims shared across the platform. Keep changes
// additive so already-issued tokens stay parseable.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the subject, for display and support tooling.
	Email string `json:"email,omitempty"`

	// Role is the subject's platform role (student, analyst, admin).
	Role string `json:"role,omitempty"`

	// TokenType distinguishes refresh and pending-2FA tokens from access
	// tokens. Empty means access.
	TokenType string `json:"type,omitempty"`
}

// NewClaims builds minimally-correct claims for one subject.
func NewClaims(subject, email, role, tokenType string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:     email,
		Role:      role,
		TokenType: tokenType,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
