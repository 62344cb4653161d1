package domain

import (
	"errors"
	"net/http"
)

// ErrorKind is the closed taxonomy of failures the auth core reports across
// its boundary. The HTTP layer matches on the kind exhaustively; message
// strings are for humans only.
type ErrorKind int

const (
	// KindValidation is malformed or missing input. Never touches the store.
	KindValidation ErrorKind = iota + 1

	// KindConflict is a uniqueness violation (duplicate email).
	KindConflict

	// KindAuth covers bad credentials, tokens, and codes. The message is
	// deliberately uniform so failures don't reveal which check tripped.
	KindAuth

	// KindNotFound means a referenced account vanished between token
	// issuance and use.
	KindNotFound

	// KindBadRequest is an operation invoked in an invalid state, e.g.
	// confirming 2FA with no setup in progress.
	KindBadRequest
)

// Status returns the HTTP-status severity hint for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// Error is the typed failure every orchestrator operation returns. It
// carries a machine-checkable kind; callers should never parse the message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches two domain errors on kind alone, so
// errors.Is(err, domain.ErrInvalidCredentials) holds for any auth failure
// with the same kind and message, and sentinel comparisons stay cheap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func ValidationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func ConflictError(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }
func AuthError(msg string) *Error       { return &Error{Kind: KindAuth, Message: msg} }
func NotFoundError(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func BadRequestError(msg string) *Error { return &Error{Kind: KindBadRequest, Message: msg} }

// Shared sentinels. The credential and code messages are intentionally
// generic to prevent account enumeration and factor probing.
var (
	ErrInvalidCredentials = AuthError("invalid email or password")
	ErrInvalidToken       = AuthError("invalid or expired token")
	ErrInvalidCode        = AuthError("invalid verification code")
	ErrUserNotFound       = NotFoundError("user not found")
	ErrEmailTaken         = ConflictError("email is already registered")
)

// KindOf extracts the kind from an error, reporting false for non-domain
// errors (which the transport maps to a 500).
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
