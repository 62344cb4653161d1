package domain

import "errors"

// TwoFactorStatus is the explicit three-state setup machine for TOTP. The
// secret's meaning follows the status: pending means unconfirmed, enabled
// means confirmed, disabled means no secret at all. Encoding the state this
// way makes "enabled with no secret" and "temp and confirmed secret at once"
// unrepresentable.
type TwoFactorStatus string

const (
	TwoFactorDisabled TwoFactorStatus = "disabled"
	TwoFactorPending  TwoFactorStatus = "pending"
	TwoFactorEnabled  TwoFactorStatus = "enabled"
)

var (
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor auth is already enabled")
	ErrTwoFactorNotPending     = errors.New("two-factor setup has not been started")
	ErrTwoFactorNotEnabled     = errors.New("two-factor auth is not enabled")
)

// TwoFactor bundles the setup status with its secret.
type TwoFactor struct {
	Status TwoFactorStatus
	Secret string // base32 TOTP secret; empty iff Status is disabled
}

// Enabled reports whether login requires a second factor.
func (t TwoFactor) Enabled() bool { return t.Status == TwoFactorEnabled }

// BeginSetup stores a fresh unconfirmed secret. Restarting an uncommitted
// setup simply replaces the previous secret; an already-confirmed secret
// must be disabled first.
func (t *TwoFactor) BeginSetup(secret string) error {
	if t.Status == TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	t.Status = TwoFactorPending
	t.Secret = secret
	return nil
}

// Confirm promotes the pending secret to confirmed, enabling the second
// factor. Valid only while a setup is in progress.
func (t *TwoFactor) Confirm() error {
	if t.Status != TwoFactorPending {
		return ErrTwoFactorNotPending
	}
	t.Status = TwoFactorEnabled
	return nil
}

// Disable clears the secret and returns the machine to its initial state.
func (t *TwoFactor) Disable() {
	t.Status = TwoFactorDisabled
	t.Secret = ""
}

// ParseTwoFactorStatus validates a stored status string.
func ParseTwoFactorStatus(s string) (TwoFactorStatus, error) {
	switch TwoFactorStatus(s) {
	case "":
		return TwoFactorDisabled, nil
	case TwoFactorDisabled, TwoFactorPending, TwoFactorEnabled:
		return TwoFactorStatus(s), nil
	default:
		return "", errors.New("unknown two-factor status " + s)
	}
}
