package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codereach/platform/internal/auth/domain"
	"github.com/codereach/platform/internal/auth/store"
	"github.com/codereach/platform/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func testUser(email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test",
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		Role:         domain.RoleStudent,
		TwoFactor:    domain.TwoFactor{Status: domain.TwoFactorDisabled},
	}
}

func TestUsersRepo(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		u := testUser("crud@example.com")
		require.NoError(t, st.Users().CreateUser(ctx, u))

		byID, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)
		require.Equal(t, domain.RoleStudent, byID.Role)
		require.Equal(t, domain.TwoFactorDisabled, byID.TwoFactor.Status)
		require.Nil(t, byID.LastLoginAt)
		require.False(t, byID.CreatedAt.IsZero())

		byEmail, err := st.Users().GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		u := testUser("dup@example.com")
		require.NoError(t, st.Users().CreateUser(ctx, u))

		again := testUser("dup@example.com")
		err := st.Users().CreateUser(ctx, again)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("misses map to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = st.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update two-factor state", func(t *testing.T) {
		u := testUser("tf@example.com")
		require.NoError(t, st.Users().CreateUser(ctx, u))

		tf := domain.TwoFactor{Status: domain.TwoFactorPending, Secret: "BASE32SECRET"}
		require.NoError(t, st.Users().UpdateTwoFactor(ctx, u.ID, tf))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, tf, got.TwoFactor)

		// Disabling clears the secret column back to NULL.
		require.NoError(t, st.Users().UpdateTwoFactor(ctx, u.ID, domain.TwoFactor{Status: domain.TwoFactorDisabled}))
		got, err = st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Empty(t, got.TwoFactor.Secret)
	})

	t.Run("update last login", func(t *testing.T) {
		u := testUser("ll@example.com")
		require.NoError(t, st.Users().CreateUser(ctx, u))

		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, st.Users().UpdateLastLogin(ctx, u.ID, at))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		require.WithinDuration(t, at, *got.LastLoginAt, time.Second)
	})

	t.Run("updates against a missing user are ErrNotFound", func(t *testing.T) {
		ghost := idx.New().String()
		err := st.Users().UpdateTwoFactor(ctx, ghost, domain.TwoFactor{Status: domain.TwoFactorDisabled})
		require.ErrorIs(t, err, store.ErrNotFound)

		err = st.Users().UpdateLastLogin(ctx, ghost, time.Now().UTC())
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestBackupCodesRepo(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	u := testUser("codes@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	hashes := []string{"hash-a", "hash-b", "hash-c"}
	for _, h := range hashes {
		require.NoError(t, st.BackupCodes().CreateBackupCode(ctx, u.ID, h))
	}

	t.Run("lists in insertion order", func(t *testing.T) {
		got, err := st.BackupCodes().ListBackupCodeHashes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, hashes, got)
	})

	t.Run("count", func(t *testing.T) {
		n, err := st.BackupCodes().CountBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})

	t.Run("delete one by hash", func(t *testing.T) {
		require.NoError(t, st.BackupCodes().DeleteBackupCode(ctx, u.ID, "hash-b"))

		got, err := st.BackupCodes().ListBackupCodeHashes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"hash-a", "hash-c"}, got)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, st.BackupCodes().DeleteAllBackupCodes(ctx, u.ID))

		n, err := st.BackupCodes().CountBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("deleting a user cascades to codes", func(t *testing.T) {
		victim := testUser("cascade@example.com")
		require.NoError(t, st.Users().CreateUser(ctx, victim))
		require.NoError(t, st.BackupCodes().CreateBackupCode(ctx, victim.ID, "h1"))

		_, err := st.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, victim.ID)
		require.NoError(t, err)

		n, err := st.BackupCodes().CountBackupCodes(ctx, victim.ID)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	u := testUser("tx@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("commits on nil", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.BackupCodes().CreateBackupCode(ctx, u.ID, "committed")
		})
		require.NoError(t, err)

		n, err := st.BackupCodes().CountBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.BackupCodes().CreateBackupCode(ctx, u.ID, "discarded"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		hashes, err := st.BackupCodes().ListBackupCodeHashes(ctx, u.ID)
		require.NoError(t, err)
		require.NotContains(t, hashes, "discarded")
	})

	t.Run("nested transactions are refused", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			_, err := tx.Tx(ctx)
			return err
		})
		require.Error(t, err)
	})
}
