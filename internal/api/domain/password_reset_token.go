package domain

import "time"

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 30 * time.Minute

// PasswordResetToken is a single-use recovery token delivered by email.
type PasswordResetToken struct {
	ID        string // ULID
	UserID    string
	Token     string // 32 random bytes, hex encoded
	Used      bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Valid reports whether the token can still be redeemed at now.
func (t *PasswordResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
