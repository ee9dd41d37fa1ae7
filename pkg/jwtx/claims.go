package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the signed token claims used across the service. Access tokens
// carry a full user snapshot; refresh tokens carry only the subject so that
// role or status changes take effect on the next refresh without needing a
// revocation list.
type Claims struct {
	jwt.RegisteredClaims

	// Name is the display name for the user.
	Name string `json:"name,omitempty"`

	// Email for the authenticated user.
	Email string `json:"email,omitempty"`

	// Role is the user's role, e.g. "ADMIN".
	Role string `json:"role,omitempty"`

	// IsActive mirrors the account status at issue time. Only set on
	// access tokens, and only ever true there since disabled accounts
	// cannot authenticate.
	IsActive bool `json:"is_active,omitempty"`
}

// NewAccessClaims builds access-token claims for the given user snapshot.
func NewAccessClaims(subject, name, email, role string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: true,
	}
}

// NewRefreshClaims builds refresh-token claims carrying only the subject.
func NewRefreshClaims(subject string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
