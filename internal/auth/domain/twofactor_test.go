package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwoFactor_StateMachine(t *testing.T) {
	t.Parallel()

	t.Run("full lifecycle", func(t *testing.T) {
		var tf TwoFactor
		require.False(t, tf.Enabled())

		require.NoError(t, tf.BeginSetup("SECRET1"))
		require.Equal(t, TwoFactorPending, tf.Status)
		require.False(t, tf.Enabled(), "pending setup must not require a second factor yet")

		require.NoError(t, tf.Confirm())
		require.True(t, tf.Enabled())
		require.Equal(t, "SECRET1", tf.Secret)

		tf.Disable()
		require.Equal(t, TwoFactorDisabled, tf.Status)
		require.Empty(t, tf.Secret)
	})

	t.Run("restarting a pending setup replaces the secret", func(t *testing.T) {
		var tf TwoFactor
		require.NoError(t, tf.BeginSetup("FIRST"))
		require.NoError(t, tf.BeginSetup("SECOND"))
		require.Equal(t, "SECOND", tf.Secret)
		require.Equal(t, TwoFactorPending, tf.Status)
	})

	t.Run("cannot begin setup while enabled", func(t *testing.T) {
		tf := TwoFactor{Status: TwoFactorEnabled, Secret: "LIVE"}
		require.ErrorIs(t, tf.BeginSetup("NEW"), ErrTwoFactorAlreadyEnabled)
		require.Equal(t, "LIVE", tf.Secret, "confirmed secret must survive a rejected setup")
	})

	t.Run("cannot confirm without a pending setup", func(t *testing.T) {
		var tf TwoFactor
		require.ErrorIs(t, tf.Confirm(), ErrTwoFactorNotPending)

		tf = TwoFactor{Status: TwoFactorEnabled, Secret: "LIVE"}
		require.ErrorIs(t, tf.Confirm(), ErrTwoFactorNotPending)
	})
}

func TestParseTwoFactorStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"disabled", "pending", "enabled"} {
		status, err := ParseTwoFactorStatus(s)
		require.NoError(t, err)
		require.Equal(t, TwoFactorStatus(s), status)
	}

	status, err := ParseTwoFactorStatus("")
	require.NoError(t, err)
	require.Equal(t, TwoFactorDisabled, status)

	_, err = ParseTwoFactorStatus("half-enabled")
	require.Error(t, err)
}
