package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSigner(t *testing.T) *HS256 {
	t.Helper()
	s, err := NewHS256(testSecret, "quill-auth", []string{"quill-api"})
	require.NoError(t, err)
	return s
}

func testClaims(ttl time.Duration) Claims {
	return NewAccessClaims(
		"user-1",
		"a@x.com",
		"Alice",
		[]string{"User"},
		ttl,
		"quill-auth",
		[]string{"quill-api"},
		time.Now().UTC(),
	)
}

func TestNewHS256RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256("short", "iss", nil)
	require.ErrorIs(t, err, ErrSecretTooShort)
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t)

	tok, err := s.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, []string{"User"}, claims.Roles)
	require.NotEmpty(t, claims.ID, "jti must be set")
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t)

	tok, err := s.Sign(testClaims(-time.Minute))
	require.NoError(t, err)

	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t)

	other, err := NewHS256("ffffffffffffffffffffffffffffffff", "quill-auth", []string{"quill-api"})
	require.NoError(t, err)

	tok, err := other.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	_, err = s.Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsWrongIssuerAndAudience(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t)

	t.Run("issuer", func(t *testing.T) {
		claims := testClaims(time.Minute)
		claims.Issuer = "someone-else"
		tok, err := s.Sign(claims)
		require.NoError(t, err)

		_, err = s.Verify(tok)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("audience", func(t *testing.T) {
		claims := testClaims(time.Minute)
		claims.Audience = jwt.ClaimStrings{"other-api"}
		tok, err := s.Sign(claims)
		require.NoError(t, err)

		_, err = s.Verify(tok)
		require.ErrorIs(t, err, ErrAudience)
	})
}

func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t)

	_, err := s.Verify("not.a.jwt")
	require.Error(t, err)

	_, err = s.Verify("")
	require.Error(t, err)
}

func TestVerifyIgnoringExpiry(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t)

	t.Run("accepts expired token", func(t *testing.T) {
		tok, err := s.Sign(testClaims(-time.Hour))
		require.NoError(t, err)

		claims, err := s.VerifyIgnoringExpiry(tok)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
	})

	t.Run("still rejects bad signature", func(t *testing.T) {
		other, err := NewHS256("ffffffffffffffffffffffffffffffff", "quill-auth", []string{"quill-api"})
		require.NoError(t, err)

		tok, err := other.Sign(testClaims(-time.Hour))
		require.NoError(t, err)

		_, err = s.VerifyIgnoringExpiry(tok)
		require.Error(t, err)
	})

	t.Run("still rejects algorithm substitution", func(t *testing.T) {
		// Unsigned "none" token carrying otherwise valid claims.
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(-time.Hour))
		tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = s.VerifyIgnoringExpiry(tok)
		require.Error(t, err)
	})

	t.Run("still rejects wrong issuer", func(t *testing.T) {
		claims := testClaims(-time.Hour)
		claims.Issuer = "someone-else"
		tok, err := s.Sign(claims)
		require.NoError(t, err)

		_, err = s.VerifyIgnoringExpiry(tok)
		require.ErrorIs(t, err, ErrIssuer)
	})
}

func TestNewJTIUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		id := NewJTI()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
