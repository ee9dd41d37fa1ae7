package service

import (
	"fmt"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/pkg/jwtx"
)

const (
	// Access token lifetime with "remember me", and the refresh token lifetime.
	longSessionTTL = 30 * 24 * time.Hour

	accessTTLProd = 12 * time.Hour
	accessTTLDev  = 10 * time.Hour
)

// TokenIssuer mints access and refresh tokens. Access token lifetime depends
// on the environment and on whether the user asked to stay signed in.
type TokenIssuer struct {
	Signer *jwtx.HS256
	Env    string
}

func (t *TokenIssuer) AccessTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return longSessionTTL
	}
	if t.Env == "development" {
		return accessTTLDev
	}
	return accessTTLProd
}

// IssueAccessToken signs an access token carrying the user's identity claims.
func (t *TokenIssuer) IssueAccessToken(u domain.User, rememberMe bool, now time.Time) (domain.IssuedToken, error) {
	ttl := t.AccessTTL(rememberMe)

	claims := jwtx.NewAccessClaims(u.ID, u.Name, u.Email, u.Role, ttl, t.Signer.Issuer(), now)
	token, err := t.Signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.IssuedToken{
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IssueRefreshToken signs a refresh token carrying only the user id.
func (t *TokenIssuer) IssueRefreshToken(userID string, now time.Time) (domain.IssuedToken, error) {
	claims := jwtx.NewRefreshClaims(userID, longSessionTTL, t.Signer.Issuer(), now)
	token, err := t.Signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.IssuedToken{
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(longSessionTTL),
	}, nil
}
