package store

import (
	"context"
	"errors"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStaleUpdate reports a conditional update whose guard no longer
	// held, e.g. consuming a code another request consumed first.
	ErrStaleUpdate = errors.New("store: conditional update matched no rows")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and to actively stop anyone from accidentally opening
// transactions within transactions.
type Store interface {
	Users() Users
	VerificationCodes() VerificationCodes
	PasswordResetTokens() PasswordResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step mutations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and forgot-password.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns one page of users ordered by creation date
	// (newest first) plus the total row count.
	ListUsers(ctx context.Context, offset, limit int) ([]domain.User, int64, error)

	// UpdateProfile sets name and email and bumps updated_at. Returns
	// ErrAlreadyExists when the email belongs to another user.
	UpdateProfile(ctx context.Context, userID, name, email string) error

	// UpdateRole sets the role and bumps updated_at.
	UpdateRole(ctx context.Context, userID, role string) error

	// SetActive flips is_active and bumps updated_at.
	SetActive(ctx context.Context, userID string, active bool) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateLastLogin stamps last_login_at after a successful verification.
	UpdateLastLogin(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users. Used by the seeder.
	IsEmpty(ctx context.Context) (bool, error)
}

type VerificationCodes interface {
	// CreateVerificationCode inserts a fresh challenge and returns it with
	// its auto-assigned numeric id (the public challengeId).
	CreateVerificationCode(ctx context.Context, c domain.VerificationCode) (domain.VerificationCode, error)

	// GetVerificationCode returns a challenge by id.
	GetVerificationCode(ctx context.Context, id int64) (domain.VerificationCode, error)

	// IncrementAttempts bumps the attempt counter by exactly one as an
	// atomic in-database increment, guarded on consumed=0, and returns the
	// updated row. Concurrent failed verifies can never collapse onto the
	// same base value.
	IncrementAttempts(ctx context.Context, id int64) (domain.VerificationCode, error)

	// Consume marks the challenge consumed, guarded on consumed=0 so only
	// one of several concurrent verifies can win. Returns ErrStaleUpdate
	// when the code was already consumed.
	Consume(ctx context.Context, id int64) error

	// RefreshVerificationCode replaces the code, restarts the created/expiry
	// window and resets the attempt counter, guarded on consumed=0. Used by
	// resend. Returns ErrStaleUpdate when the code was already consumed.
	RefreshVerificationCode(ctx context.Context, id int64, code string, createdAt, expiresAt time.Time) error

	// DeleteExpiredVerificationCodes removes stale challenges (housekeeping).
	DeleteExpiredVerificationCodes(ctx context.Context) error
}

type PasswordResetTokens interface {
	// CreatePasswordResetToken stores a new reset token record.
	CreatePasswordResetToken(ctx context.Context, t domain.PasswordResetToken) error

	// GetPasswordResetToken returns the record for the opaque token value.
	GetPasswordResetToken(ctx context.Context, token string) (domain.PasswordResetToken, error)

	// MarkResetTokenUsed flips used=1, guarded on used=0. Returns
	// ErrStaleUpdate when the token was already redeemed.
	MarkResetTokenUsed(ctx context.Context, id string) error

	// DeleteExpiredResetTokens removes stale tokens (housekeeping).
	DeleteExpiredResetTokens(ctx context.Context) error
}
