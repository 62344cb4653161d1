package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"empty password", ""},
		{"unicode password", "пароль密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			// Modular crypt format with the configured cost embedded.
			require.True(t, strings.HasPrefix(hash, "$2a$10$"),
				"hash should be bcrypt at cost 10")

			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	t.Parallel()

	password := "samepassword"

	hash1, err := HashPassword(password)
	require.NoError(t, err)
	hash2, err := HashPassword(password)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")

	require.NoError(t, VerifyPassword(password, hash1))
	require.NoError(t, VerifyPassword(password, hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	tests := []struct {
		name          string
		wrongPassword string
	}{
		{"completely wrong", "wrong-password"},
		{"case difference", "Correct-Password"},
		{"extra space", "correct-password "},
		{"empty password", ""},
		{"truncated password", "correct-passwor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword(tt.wrongPassword, hash)
			require.ErrorIs(t, err, ErrMismatch)
		})
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"not a hash at all", "plaintext-left-over-from-migration"},
		{"wrong algorithm", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"truncated bcrypt", "$2a$10$shortsalt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A corrupt stored hash must read as a failed login, never a
			// panic or a distinct error the transport could leak.
			err := VerifyPassword("test-password", tt.invalidHash)
			require.ErrorIs(t, err, ErrMismatch)
		})
	}
}
