package domain

import (
	"strings"
	"time"
)

// User is the persisted account record. PasswordHash and the two-factor
// secret never leave this package's boundary; hand out Safe() instead.
type User struct {
	ID           string
	Email        string // unique, stored lowercase
	Name         string
	PasswordHash string // bcrypt encoded
	Role         Role
	TwoFactor    TwoFactor
	LastLoginAt  *time.Time // updated on every completed login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser is the outward-facing projection of a user: no password hash, no
// secrets, no backup codes.
type SafeUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Safe strips everything secret-bearing from the record.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactor.Enabled(),
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
	}
}

// NormalizeEmail trims and lowercases an email so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
