package domain

import "time"

// IssuedToken is a signed token plus its timing metadata.
type IssuedToken struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthResult is returned after a successful OTP verification: the user
// snapshot and both tokens.
type AuthResult struct {
	User         PublicUser  `json:"user"`
	AccessToken  IssuedToken `json:"accessToken"`
	RefreshToken IssuedToken `json:"refreshToken"`
}
