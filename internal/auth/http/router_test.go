package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codereach/platform/internal/auth/domain"
	httpapi "github.com/codereach/platform/internal/auth/http"
	"github.com/codereach/platform/internal/auth/service"
	"github.com/codereach/platform/internal/auth/store/drivers/sqlite"
	"github.com/codereach/platform/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte("router-test-secret-32-bytes-long"), "test-issuer")
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:     signer,
		Issuer:     "test-issuer",
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
		PendingTTL: jwtx.DefaultPendingTokenTTL,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := httpapi.NewRouter(signer, "test", st, logger)
	router.AuthService = &service.AuthService{Store: st, Tokens: tokens}
	router.MFAService = &service.MFAService{Store: st, Tokens: tokens, Issuer: "test-issuer"}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends body to path and decodes the JSON response into out when
// non-nil. A distinct X-Forwarded-For per test server keeps the strict
// per-IP rate limits from coupling unrelated tests.
func doJSON(t *testing.T, srv *httptest.Server, method, path, bearer string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", srv.Listener.Addr().String())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var live map[string]any
	code := doJSON(t, srv, http.MethodGet, "/livez", "", nil, &live)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", live["status"])

	var ready map[string]string
	code = doJSON(t, srv, http.MethodGet, "/readyz", "", nil, &ready)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", ready["status"])
}

func TestRegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	var reg domain.LoginResult
	code := doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "web@example.com",
		"password": "password123",
		"name":     "Web",
	}, &reg)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, reg.Tokens)
	require.Equal(t, "web@example.com", reg.User.Email)

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		var errResp httpapi.ErrorResponse
		code := doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"email":    "web@example.com",
			"password": "password456",
		}, &errResp)
		require.Equal(t, http.StatusConflict, code)
		require.Equal(t, "conflict", errResp.Error)
	})

	t.Run("login returns tokens", func(t *testing.T) {
		var result domain.LoginResult
		code := doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"email":    "web@example.com",
			"password": "password123",
		}, &result)
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, result.Tokens)
		require.Nil(t, result.Challenge)
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		var errResp httpapi.ErrorResponse
		code := doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"email":    "web@example.com",
			"password": "wrong",
		}, &errResp)
		require.Equal(t, http.StatusUnauthorized, code)
		require.Equal(t, "unauthorized", errResp.Error)
	})

	t.Run("refresh rotates the pair", func(t *testing.T) {
		var pair domain.TokenPair
		code := doJSON(t, srv, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
			"refresh_token": reg.Tokens.RefreshToken,
		}, &pair)
		require.Equal(t, http.StatusOK, code)
		require.NotEmpty(t, pair.AccessToken)
	})

	t.Run("me requires a bearer token", func(t *testing.T) {
		code := doJSON(t, srv, http.MethodGet, "/v1/auth/me", "", nil, nil)
		require.Equal(t, http.StatusUnauthorized, code)

		var me domain.SafeUser
		code = doJSON(t, srv, http.MethodGet, "/v1/auth/me", reg.Tokens.AccessToken, nil, &me)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "web@example.com", me.Email)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/auth/login", bytes.NewBufferString("{"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTwoFactorEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	var reg domain.LoginResult
	code := doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "2fa@example.com",
		"password": "password123",
		"name":     "TwoFA",
	}, &reg)
	require.Equal(t, http.StatusCreated, code)
	access := reg.Tokens.AccessToken

	// Begin setup.
	var enrollment domain.TwoFactorEnrollment
	code = doJSON(t, srv, http.MethodPost, "/v1/2fa/setup", access, struct{}{}, &enrollment)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, enrollment.Secret)

	// Confirm with a current code; backup codes come back exactly once.
	totpCode, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)

	var backup httpapi.BackupCodesResponse
	code = doJSON(t, srv, http.MethodPost, "/v1/2fa/enable", access,
		httpapi.TwoFactorCodeRequest{Code: totpCode}, &backup)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, backup.Codes, 10)

	// Status reflects the enabled state.
	var status domain.TwoFactorStatusInfo
	code = doJSON(t, srv, http.MethodGet, "/v1/2fa/status", access, nil, &status)
	require.Equal(t, http.StatusOK, code)
	require.True(t, status.Enabled)
	require.Equal(t, 10, status.BackupCodesRemaining)

	// Login now yields a challenge, and the pending token is locked out of
	// protected resources.
	var challenged domain.LoginResult
	code = doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "2fa@example.com",
		"password": "password123",
	}, &challenged)
	require.Equal(t, http.StatusOK, code)
	require.Nil(t, challenged.Tokens)
	require.NotNil(t, challenged.Challenge)

	code = doJSON(t, srv, http.MethodGet, "/v1/auth/me", challenged.Challenge.PendingToken, nil, nil)
	require.Equal(t, http.StatusUnauthorized, code)

	// Complete the challenge with a backup code.
	var completed domain.LoginResult
	code = doJSON(t, srv, http.MethodPost, "/v1/auth/2fa/verify-backup", "",
		httpapi.TwoFactorVerifyRequest{
			PendingToken: challenged.Challenge.PendingToken,
			Code:         backup.Codes[0],
		}, &completed)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, completed.Tokens)

	code = doJSON(t, srv, http.MethodGet, "/v1/auth/me", completed.Tokens.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, code)

	// Disable with a TOTP code; subsequent logins are unchallenged.
	totpCode, err = totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)
	code = doJSON(t, srv, http.MethodDelete, "/v1/2fa", access,
		httpapi.TwoFactorCodeRequest{Code: totpCode}, nil)
	require.Equal(t, http.StatusOK, code)

	var relogin domain.LoginResult
	code = doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "2fa@example.com",
		"password": "password123",
	}, &relogin)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, relogin.Tokens)
	require.Nil(t, relogin.Challenge)
}
