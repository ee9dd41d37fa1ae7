package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portalhq/portal/internal/api/domain"
)

func TestAccessTTLPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        string
		rememberMe bool
		want       time.Duration
	}{
		{"RememberMeProd", "production", true, 30 * 24 * time.Hour},
		{"RememberMeDev", "development", true, 30 * 24 * time.Hour},
		{"ShortSessionProd", "production", false, 12 * time.Hour},
		{"ShortSessionStaging", "staging", false, 12 * time.Hour},
		{"ShortSessionDev", "development", false, 10 * time.Hour},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			issuer := newTestIssuer(t, tc.env)
			require.Equal(t, tc.want, issuer.AccessTTL(tc.rememberMe))
		})
	}
}

func TestIssueAccessToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "production")
	now := time.Now().UTC().Truncate(time.Second)

	u := domain.User{
		ID:    "user-1",
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  domain.RoleAdmin,
	}

	issued, err := issuer.IssueAccessToken(u, false, now)
	require.NoError(t, err)
	require.Equal(t, now, issued.IssuedAt)
	require.Equal(t, now.Add(12*time.Hour), issued.ExpiresAt)

	claims, err := issuer.Signer.Verify(issued.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "Alice", claims.Name)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.True(t, claims.IsActive)
}

func TestIssueRefreshTokenCarriesOnlyID(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "production")
	now := time.Now().UTC()

	issued, err := issuer.IssueRefreshToken("user-1", now)
	require.NoError(t, err)

	claims, err := issuer.Signer.Verify(issued.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Empty(t, claims.Name)
	require.Empty(t, claims.Email)
	require.Empty(t, claims.Role)
}
