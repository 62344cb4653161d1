package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")

	errEmptySecret = errors.New("jwtx: signing secret must not be empty")
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies tokens with a shared HMAC-SHA256 secret. All
// token consumers are first-party services holding the same secret, so
// there is no need for asymmetric keys or published key sets here.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 builds a signer/verifier around the shared secret. The issuer is
// stamped into every token and enforced on verification.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	return &HS256{secret: secret, issuer: issuer}, nil
}

// Sign produces a compact serialized token for the claims.
func (h *HS256) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(h.secret)
}

// Verify parses and validates a token: signature, expiry/nbf, and issuer.
// Failures map onto the package sentinels so callers can distinguish an
// expired token from a forged one when they care to.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, ErrMalformed
		}
	}

	if h.issuer != "" && claims.Issuer != h.issuer {
		return Claims{}, ErrIssuer
	}
	return claims, nil
}

// DecodeExpiry extracts the "exp" claim without verifying the signature.
// Only use this to compute remaining validity of tokens this service has
// already issued and verified; never for authentication decisions.
func DecodeExpiry(token string) (time.Time, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, ErrMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}
