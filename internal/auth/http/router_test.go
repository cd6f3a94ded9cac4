package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/identity"
	"github.com/quillworks/quill/internal/auth/service"
	"github.com/quillworks/quill/internal/auth/store/drivers/sqlite"
	"github.com/quillworks/quill/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testIssuer = "quill-test"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256(testSecret, testIssuer, nil)
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:     signer,
		Store:      st,
		Issuer:     testIssuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(signer, "test", st, logger)
	r.AuthService = &service.AuthService{
		Users:  identity.NewUserStore(st),
		Tokens: tokens,
	}
	r.ApplyRoutes()
	return r
}

func doJSON(t *testing.T, r *Router, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, r *Router, email string) domain.AuthResult {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", map[string]string{
		"email":            email,
		"display_name":     "Test User",
		"password":         "correct horse battery",
		"confirm_password": "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result domain.AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.Succeeded)
	return result
}

func bearer(result domain.AuthResult) map[string]string {
	return map[string]string{"Authorization": "Bearer " + result.Tokens.AccessToken}
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter(t)

	t.Run("creates account and returns tokens", func(t *testing.T) {
		result := registerUser(t, r, "alice@example.com")
		require.NotEmpty(t, result.Tokens.AccessToken)
		require.NotEmpty(t, result.Tokens.RefreshToken)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", map[string]string{"email": "x@y.z"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", map[string]string{
			"email":    "alice@example.com",
			"password": "correct horse battery",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password gets 401", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong password!",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	r := newTestRouter(t)
	registered := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/refresh", map[string]string{
		"access_token":  registered.Tokens.AccessToken,
		"refresh_token": registered.Tokens.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated domain.AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rotated))
	require.True(t, rotated.Succeeded)
	require.NotEqual(t, registered.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	t.Run("replaying the consumed refresh token gets 401", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"access_token":  registered.Tokens.AccessToken,
			"refresh_token": registered.Tokens.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	r := newTestRouter(t)
	registered := registerUser(t, r, "alice@example.com")

	t.Run("requires authentication", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/logout", map[string]string{
			"refresh_token": registered.Tokens.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("blacklists the refresh token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/logout", map[string]string{
			"refresh_token": registered.Tokens.RefreshToken,
		}, bearer(registered))
		require.Equal(t, http.StatusOK, rec.Code)

		refresh := doJSON(t, r, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"access_token":  registered.Tokens.AccessToken,
			"refresh_token": registered.Tokens.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, refresh.Code)
	})
}

func TestRevokeAllEndpoint(t *testing.T) {
	r := newTestRouter(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")

	t.Run("self revoke succeeds", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/revoke-all", map[string]string{}, bearer(alice))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("revoking another user without admin is forbidden", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/revoke-all", map[string]string{
			"user_id": bob.Profile.ID,
		}, bearer(alice))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUserInfoEndpoint(t *testing.T) {
	r := newTestRouter(t)
	alice := registerUser(t, r, "alice@example.com")

	t.Run("returns the profile", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/userinfo", nil, bearer(alice))
		require.Equal(t, http.StatusOK, rec.Code)

		var profile domain.Profile
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
		require.Equal(t, "alice@example.com", profile.Email)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/userinfo", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/userinfo", nil, map[string]string{
			"Authorization": "Bearer not-a-token",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
