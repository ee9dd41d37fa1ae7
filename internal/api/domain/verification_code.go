package domain

import "time"

// Verification code types. Only login challenges exist today; the column
// is typed so other flows can reuse the table later.
const (
	CodeTypeLogin = "LOGIN"
)

// Code lifecycle constants.
const (
	// CodeTTL is how long a code stays valid after creation or resend.
	CodeTTL = 5 * time.Minute

	// MaxCodeAttempts is the attempt ceiling. Reaching it locks the
	// challenge permanently, a correct code no longer helps.
	MaxCodeAttempts = 3

	// ResendCooldown is the minimum age a code must reach before it can
	// be resent. Measured from CreatedAt, so every resend restarts both
	// the cooldown and the expiry window.
	ResendCooldown = 60 * time.Second
)

// VerificationCode is a single-use, time-boxed OTP challenge. Its numeric
// id is the challengeId handed back to clients after a password login.
type VerificationCode struct {
	ID        int64 // auto-assigned, the public challengeId
	UserID    string
	Type      string // CodeTypeLogin
	Code      string // 6-digit numeric string
	Consumed  bool
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the code's validity window has passed.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Locked reports whether the attempt ceiling has been reached.
func (c *VerificationCode) Locked() bool {
	return c.Attempts >= MaxCodeAttempts
}
