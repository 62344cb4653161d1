package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	t.Run("accepts members of the closed set", func(t *testing.T) {
		for _, s := range []string{"student", "analyst", "admin"} {
			role, err := ParseRole(s)
			require.NoError(t, err)
			require.Equal(t, Role(s), role)
			require.True(t, role.Valid())
		}
	})

	t.Run("empty input yields the default", func(t *testing.T) {
		role, err := ParseRole("")
		require.NoError(t, err)
		require.Equal(t, DefaultRole, role)
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, s := range []string{"superadmin", "Student", "ADMIN", "root", " "} {
			_, err := ParseRole(s)
			require.Error(t, err, "input %q", s)
		}
	})
}

func TestUserSafe_StripsSecrets(t *testing.T) {
	t.Parallel()

	u := User{
		ID:           "id-1",
		Email:        "a@example.com",
		Name:         "Ada",
		PasswordHash: "$2a$10$secret",
		Role:         RoleAnalyst,
		TwoFactor:    TwoFactor{Status: TwoFactorEnabled, Secret: "BASE32SECRET"},
	}

	safe := u.Safe()
	require.Equal(t, u.ID, safe.ID)
	require.Equal(t, u.Email, safe.Email)
	require.Equal(t, RoleAnalyst, safe.Role)
	require.True(t, safe.TwoFactorEnabled)
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a@example.com", NormalizeEmail("  A@Example.COM  "))
	require.Equal(t, "", NormalizeEmail("   "))
}
