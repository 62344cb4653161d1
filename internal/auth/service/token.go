package service

import (
	"time"

	"github.com/codereach/platform/internal/auth/domain"
	"github.com/codereach/platform/pkg/jwtx"
)

// TokenService owns the token lifecycle: session pairs, pending-2FA tokens,
// and verification with type-marker enforcement. All verification failures
// collapse to domain.ErrInvalidToken at this boundary; callers never need to
// distinguish a forged token from an expired one.
type TokenService struct {
	Signer     *jwtx.HS256
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PendingTTL time.Duration
}

// IssueSessionTokens signs a fresh access+refresh pair for the user.
// ExpiresIn comes from decoding the access token we just signed rather than
// echoing the configured TTL, so it is correct even if signing is slow or a
// TTL changes between issue paths.
func (s *TokenService) IssueSessionTokens(u domain.User) (domain.TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.Signer.Sign(jwtx.NewClaims(
		u.ID, u.Email, u.Role.String(), jwtx.TokenTypeAccess, s.AccessTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewClaims(
		u.ID, u.Email, u.Role.String(), jwtx.TokenTypeRefresh, s.RefreshTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	exp, err := jwtx.DecodeExpiry(access)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}

// IssuePendingTwoFactorToken signs the short-lived intermediate token handed
// out after a correct password on a 2FA-enabled account. Its type marker
// keeps it out of every protected resource.
func (s *TokenService) IssuePendingTwoFactorToken(u domain.User) (string, error) {
	now := time.Now().UTC()
	return s.Signer.Sign(jwtx.NewClaims(
		u.ID, u.Email, u.Role.String(), jwtx.TokenTypePending2FA, s.PendingTTL, s.Issuer, now))
}

// VerifyAccess validates a bearer token for resource access. Refresh and
// pending-2FA tokens are rejected here no matter how valid their signatures
// are.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.verifyTyped(token, jwtx.TokenTypeAccess)
}

// VerifyRefresh validates a token presented to the refresh endpoint.
func (s *TokenService) VerifyRefresh(token string) (jwtx.Claims, error) {
	return s.verifyTyped(token, jwtx.TokenTypeRefresh)
}

// VerifyPendingTwoFactor validates the intermediate token presented along
// with a TOTP or backup code.
func (s *TokenService) VerifyPendingTwoFactor(token string) (jwtx.Claims, error) {
	return s.verifyTyped(token, jwtx.TokenTypePending2FA)
}

func (s *TokenService) verifyTyped(token, wantType string) (jwtx.Claims, error) {
	claims, err := s.Signer.Verify(token)
	if err != nil {
		return jwtx.Claims{}, domain.ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return jwtx.Claims{}, domain.ErrInvalidToken
	}
	return claims, nil
}
