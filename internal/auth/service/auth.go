package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codereach/platform/internal/auth/domain"
	"github.com/codereach/platform/internal/auth/store"
	"github.com/codereach/platform/pkg/cryptox"
	"github.com/codereach/platform/pkg/idx"
	"github.com/codereach/platform/pkg/slogx"
)

// MinPasswordLength is enforced at registration only; existing hashes are
// never re-validated against it.
const MinPasswordLength = 8

// twoFactorMethods lists the second factors a challenged login may complete
// with.
var twoFactorMethods = []string{"totp", "backup_code"}

// AuthService orchestrates registration, login, refresh, and the bearer
// gate. Two-factor completion lives in MFAService.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
}

// Register creates a new account and issues session tokens immediately. The
// second factor never applies at registration time, even if the user later
// enables it.
func (s *AuthService) Register(ctx context.Context, email, password, name, role string) (domain.LoginResult, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.LoginResult{}, domain.ValidationError("email and password are required")
	}
	if len(password) < MinPasswordLength {
		return domain.LoginResult{}, domain.ValidationError(
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return domain.LoginResult{}, domain.ValidationError(err.Error())
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         parsedRole,
		TwoFactor:    domain.TwoFactor{Status: domain.TwoFactorDisabled},
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.LoginResult{}, domain.ErrEmailTaken
		}
		return domain.LoginResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.Tokens.IssueSessionTokens(u)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	l.Info("user registered", slog.String("user_id", u.ID), slog.String("role", parsedRole.String()))
	return domain.LoginResult{User: u.Safe(), Tokens: &tokens}, nil
}

// Login checks primary credentials. Accounts with 2FA enabled receive a
// pending-2FA challenge instead of session tokens; everyone else gets the
// session pair directly. Lookup misses and hash mismatches produce the same
// error so responses don't reveal whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.LoginResult{}, domain.ValidationError("email and password are required")
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if cryptox.VerifyPassword(password, u.PasswordHash) != nil {
		l.Info("login failed", slog.String("user_id", u.ID))
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	if u.TwoFactor.Enabled() {
		pending, err := s.Tokens.IssuePendingTwoFactorToken(u)
		if err != nil {
			return domain.LoginResult{}, fmt.Errorf("failed to issue pending token: %w", err)
		}
		l.Info("login challenged for second factor", slog.String("user_id", u.ID))
		return domain.LoginResult{
			User: u.Safe(),
			Challenge: &domain.TwoFactorChallenge{
				TwoFactorRequired: true,
				PendingToken:      pending,
				Methods:           twoFactorMethods,
			},
		}, nil
	}

	tokens, err := s.Tokens.IssueSessionTokens(u)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	now := time.Now().UTC()
	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to record login: %w", err)
	}
	u.LastLoginAt = &now

	l.Info("login succeeded", slog.String("user_id", u.ID))
	return domain.LoginResult{User: u.Safe(), Tokens: &tokens}, nil
}

// Refresh exchanges a valid refresh token for a brand-new access+refresh
// pair. There is no revocation store, so the old refresh token stays valid
// until its natural expiry; rotation here is best-effort hygiene, not
// invalidation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	if refreshToken == "" {
		return domain.TokenPair{}, domain.ValidationError("refresh token is required")
	}

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, domain.ErrInvalidToken
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.ErrInvalidToken
		}
		return domain.TokenPair{}, fmt.Errorf("failed to look up user: %w", err)
	}

	tokens, err := s.Tokens.IssueSessionTokens(u)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return tokens, nil
}

// GetUser loads the full outward-safe projection for an authenticated
// subject, e.g. for the dashboard profile endpoint.
func (s *AuthService) GetUser(ctx context.Context, userID string) (domain.SafeUser, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SafeUser{}, domain.ErrUserNotFound
		}
		return domain.SafeUser{}, fmt.Errorf("failed to look up user: %w", err)
	}
	return u.Safe(), nil
}

// Authenticate is the gate every protected resource calls with a bearer
// token. It is purely computational: no store round-trip, so the projection
// carries only what the claims do. Pending-2FA and refresh tokens are
// rejected here regardless of validity.
func (s *AuthService) Authenticate(bearerToken string) (domain.SafeUser, error) {
	claims, err := s.Tokens.VerifyAccess(bearerToken)
	if err != nil {
		return domain.SafeUser{}, domain.ErrInvalidToken
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.SafeUser{}, domain.ErrInvalidToken
	}

	return domain.SafeUser{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  role,
	}, nil
}
