package cryptox

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor. 10 rounds keeps a single hash in the
// tens of milliseconds on current hardware, slow enough to blunt offline
// guessing without making login noticeably laggy.
const HashCost = 10

// ErrMismatch reports that a plaintext does not match its stored hash.
var ErrMismatch = errors.New("cryptox: hash mismatch")

// HashPassword returns a salted bcrypt hash of password. The salt is random,
// so hashing the same plaintext twice yields different strings.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares plaintext against a bcrypt hash. The comparison is
// constant-time within bcrypt itself. A malformed hash is reported as
// ErrMismatch rather than surfaced to callers, so a corrupt record behaves
// like a wrong password instead of a server fault.
func VerifyPassword(password, encodedHash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return ErrMismatch
	}
	return nil
}
