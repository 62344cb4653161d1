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
	"github.com/codereach/platform/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod = 30 // seconds per time step
	totpDigits = otp.DigitsSix
	totpSkew   = 1 // steps of clock-drift tolerance either side
)

// MFAService owns the two-factor lifecycle: enrolment, confirmation,
// disablement, challenge completion, and backup codes.
type MFAService struct {
	Store  store.Store
	Tokens *TokenService
	Issuer string // issuer label shown in authenticator apps

	// BackupCodeCount/Length fall back to the cryptox defaults when zero.
	BackupCodeCount  int
	BackupCodeLength int
}

// SetupTwoFactor generates a fresh TOTP secret and stores it unconfirmed.
// Calling it again before confirmation simply replaces the pending secret;
// 2FA is not enabled until EnableTwoFactor verifies a code against it.
func (s *MFAService) SetupTwoFactor(ctx context.Context, userID string) (domain.TwoFactorEnrollment, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.TwoFactorEnrollment{}, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      totpPeriod,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TwoFactorEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := u.TwoFactor.BeginSetup(key.Secret()); err != nil {
		return domain.TwoFactorEnrollment{}, domain.BadRequestError(err.Error())
	}
	if err := s.Store.Users().UpdateTwoFactor(ctx, u.ID, u.TwoFactor); err != nil {
		return domain.TwoFactorEnrollment{}, fmt.Errorf("failed to store pending secret: %w", err)
	}

	return domain.TwoFactorEnrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		Issuer:          s.Issuer,
		Account:         u.Email,
	}, nil
}

// EnableTwoFactor confirms a pending setup by verifying a code against the
// unconfirmed secret. On success the secret is promoted, a fresh backup-code
// set is stored, and the plaintext codes are returned exactly once.
// Confirmation consumes the pending state, so a second call fails with a
// bad-request error rather than succeeding twice.
func (s *MFAService) EnableTwoFactor(ctx context.Context, userID, code string) ([]string, error) {
	l := slogx.FromContext(ctx)

	if code == "" {
		return nil, domain.ValidationError("verification code is required")
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch u.TwoFactor.Status {
	case domain.TwoFactorEnabled:
		return nil, domain.BadRequestError(domain.ErrTwoFactorAlreadyEnabled.Error())
	case domain.TwoFactorPending:
		// fall through to verification
	default:
		return nil, domain.BadRequestError(domain.ErrTwoFactorNotPending.Error())
	}

	if !verifyTOTPCode(code, u.TwoFactor.Secret) {
		return nil, domain.ErrInvalidCode
	}
	if err := u.TwoFactor.Confirm(); err != nil {
		return nil, domain.BadRequestError(err.Error())
	}

	codes, hashes, err := s.mintBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateTwoFactor(ctx, u.ID, u.TwoFactor); err != nil {
			return fmt.Errorf("failed to enable two-factor: %w", err)
		}
		return replaceBackupCodes(ctx, tx, u.ID, hashes)
	})
	if err != nil {
		return nil, err
	}

	l.Info("two-factor enabled", slog.String("user_id", u.ID))
	return codes, nil
}

// DisableTwoFactor turns the second factor off. Proof of possession is
// either a current TOTP code or one of the stored backup codes; the whole
// 2FA state, backup codes included, is destroyed on success.
func (s *MFAService) DisableTwoFactor(ctx context.Context, userID, code string) error {
	l := slogx.FromContext(ctx)

	if code == "" {
		return domain.ValidationError("verification code is required")
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.TwoFactor.Enabled() {
		return domain.BadRequestError(domain.ErrTwoFactorNotEnabled.Error())
	}

	proven := verifyTOTPCode(code, u.TwoFactor.Secret)
	if !proven {
		hashes, err := s.Store.BackupCodes().ListBackupCodeHashes(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("failed to list backup codes: %w", err)
		}
		_, proven = cryptox.MatchBackupCode(hashes, code)
	}
	if !proven {
		return domain.ErrInvalidCode
	}

	u.TwoFactor.Disable()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, u.ID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		if err := tx.Users().UpdateTwoFactor(ctx, u.ID, u.TwoFactor); err != nil {
			return fmt.Errorf("failed to disable two-factor: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.Info("two-factor disabled", slog.String("user_id", u.ID))
	return nil
}

// VerifyTwoFactor completes a challenged login with a TOTP code.
func (s *MFAService) VerifyTwoFactor(ctx context.Context, pendingToken, code string) (domain.LoginResult, error) {
	u, err := s.resolveChallenge(ctx, pendingToken, code)
	if err != nil {
		return domain.LoginResult{}, err
	}

	if !verifyTOTPCode(code, u.TwoFactor.Secret) {
		return domain.LoginResult{}, domain.ErrInvalidCode
	}

	return s.completeLogin(ctx, u, nil)
}

// VerifyBackupCode completes a challenged login with a single-use recovery
// code. The matched code is consumed atomically with the login bookkeeping,
// so the stored set shrinks by exactly one.
func (s *MFAService) VerifyBackupCode(ctx context.Context, pendingToken, backupCode string) (domain.LoginResult, error) {
	u, err := s.resolveChallenge(ctx, pendingToken, backupCode)
	if err != nil {
		return domain.LoginResult{}, err
	}

	hashes, err := s.Store.BackupCodes().ListBackupCodeHashes(ctx, u.ID)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to list backup codes: %w", err)
	}
	i, ok := cryptox.MatchBackupCode(hashes, backupCode)
	if !ok {
		return domain.LoginResult{}, domain.ErrInvalidCode
	}

	consumed := hashes[i]
	return s.completeLogin(ctx, u, &consumed)
}

// RegenerateBackupCodes replaces the entire backup-code set wholesale and
// returns the new plaintext codes once. Previously issued codes all stop
// working, even unused ones.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	l := slogx.FromContext(ctx)

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.TwoFactor.Enabled() {
		return nil, domain.BadRequestError(domain.ErrTwoFactorNotEnabled.Error())
	}

	codes, hashes, err := s.mintBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return replaceBackupCodes(ctx, tx, u.ID, hashes)
	})
	if err != nil {
		return nil, err
	}

	l.Info("backup codes regenerated", slog.String("user_id", u.ID))
	return codes, nil
}

// TwoFactorStatus reports the current setup state for the dashboard.
func (s *MFAService) TwoFactorStatus(ctx context.Context, userID string) (domain.TwoFactorStatusInfo, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.TwoFactorStatusInfo{}, err
	}

	remaining := 0
	if u.TwoFactor.Enabled() {
		remaining, err = s.Store.BackupCodes().CountBackupCodes(ctx, u.ID)
		if err != nil {
			return domain.TwoFactorStatusInfo{}, fmt.Errorf("failed to count backup codes: %w", err)
		}
	}

	return domain.TwoFactorStatusInfo{
		Enabled:              u.TwoFactor.Enabled(),
		SetupPending:         u.TwoFactor.Status == domain.TwoFactorPending,
		BackupCodesRemaining: remaining,
	}, nil
}

// resolveChallenge validates the pending token and loads its subject,
// covering the failure modes shared by both second-factor paths.
func (s *MFAService) resolveChallenge(ctx context.Context, pendingToken, code string) (domain.User, error) {
	if pendingToken == "" || code == "" {
		return domain.User{}, domain.ValidationError("pending token and code are required")
	}

	claims, err := s.Tokens.VerifyPendingTwoFactor(pendingToken)
	if err != nil {
		return domain.User{}, domain.ErrInvalidToken
	}

	u, err := s.getUser(ctx, claims.Subject)
	if err != nil {
		return domain.User{}, err
	}
	if !u.TwoFactor.Enabled() {
		return domain.User{}, domain.BadRequestError(domain.ErrTwoFactorNotEnabled.Error())
	}
	return u, nil
}

// completeLogin finishes a second-factor login: consumes the backup code if
// one was used, stamps last_login_at, and issues the full session pair.
func (s *MFAService) completeLogin(ctx context.Context, u domain.User, consumedHash *string) (domain.LoginResult, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if consumedHash != nil {
			if err := tx.BackupCodes().DeleteBackupCode(ctx, u.ID, *consumedHash); err != nil {
				return fmt.Errorf("failed to consume backup code: %w", err)
			}
		}
		if err := tx.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
			return fmt.Errorf("failed to record login: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.LoginResult{}, err
	}
	u.LastLoginAt = &now

	tokens, err := s.Tokens.IssueSessionTokens(u)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	l.Info("second factor verified", slog.String("user_id", u.ID))
	return domain.LoginResult{User: u.Safe(), Tokens: &tokens}, nil
}

func (s *MFAService) getUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	return u, nil
}

func (s *MFAService) mintBackupCodes() ([]string, []string, error) {
	count, length := s.BackupCodeCount, s.BackupCodeLength
	if count <= 0 {
		count = cryptox.DefaultBackupCodeCount
	}
	if length <= 0 {
		length = cryptox.DefaultBackupCodeLength
	}

	codes, err := cryptox.GenerateBackupCodes(count, length)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}
	hashes, err := cryptox.HashBackupCodes(codes)
	if err != nil {
		return nil, nil, err
	}
	return codes, hashes, nil
}

func replaceBackupCodes(ctx context.Context, tx store.Tx, userID string, hashes []string) error {
	if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete old backup codes: %w", err)
	}
	for _, h := range hashes {
		if err := tx.BackupCodes().CreateBackupCode(ctx, userID, h); err != nil {
			return fmt.Errorf("failed to store backup code: %w", err)
		}
	}
	return nil
}

// verifyTOTPCode checks a submitted code against the shared secret at the
// current time step with one step of skew either side. Obviously malformed
// codes are rejected before any HMAC work.
func verifyTOTPCode(code, secret string) bool {
	if len(code) != int(totpDigits.Length()) {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    totpDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
