package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// MinSecretSize is the smallest acceptable HMAC secret in bytes. Anything
// shorter than the hash output weakens HS256 below its design strength.
const MinSecretSize = 32

// HS256 signs and verifies JWTs with a single symmetric secret.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 creates a signer/verifier pair around the shared secret.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("jwtx: secret must be at least %d bytes, got %d", MinSecretSize, len(secret))
	}
	return &HS256{secret: secret, issuer: issuer}, nil
}

// Issuer returns the iss value this signer stamps and enforces.
func (h *HS256) Issuer() string {
	return h.issuer
}

// Sign produces a compact serialized JWT for the claims.
func (h *HS256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify validates the JWT string and returns its parsed Claims. It fails
// closed: any parse, signature, expiry or issuer problem yields an error,
// callers never see partially-validated claims.
func (h *HS256) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
