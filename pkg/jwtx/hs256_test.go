package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/portalhq/portal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSigner(t *testing.T) *jwtx.HS256 {
	t.Helper()

	h, err := jwtx.NewHS256([]byte(testSecret), "portal-api")
	require.NoError(t, err)
	return h
}

func TestNewHS256_RejectsShortSecret(t *testing.T) {
	_, err := jwtx.NewHS256([]byte("too-short"), "portal-api")
	require.Error(t, err)
}

func TestHS256_SignAndVerify(t *testing.T) {
	h := newTestSigner(t)
	now := time.Now().UTC()

	claims := jwtx.NewAccessClaims("user-1", "Ada", "ada@example.com", "MEMBER", time.Hour, "portal-api", now)
	token, err := h.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")), "compact JWT has three segments")

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "ada@example.com", got.Email)
	require.Equal(t, "MEMBER", got.Role)
	require.True(t, got.IsActive)
}

func TestHS256_VerifyFailsClosed(t *testing.T) {
	h := newTestSigner(t)
	now := time.Now().UTC()

	t.Run("garbage token", func(t *testing.T) {
		_, err := h.Verify("not.a.jwt")
		require.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := h.Verify("")
		require.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := h.Sign(jwtx.NewRefreshClaims("user-1", -time.Minute, "portal-api", now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "portal-api")
		require.NoError(t, err)

		token, err := other.Sign(jwtx.NewRefreshClaims("user-1", time.Hour, "portal-api", now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte(testSecret), "someone-else")
		require.NoError(t, err)

		token, err := other.Sign(jwtx.NewRefreshClaims("user-1", time.Hour, "someone-else", now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := h.Sign(jwtx.NewRefreshClaims("user-1", time.Hour, "portal-api", now))
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "xx"
		_, err = h.Verify(strings.Join(parts, "."))
		require.Error(t, err)
	})
}
