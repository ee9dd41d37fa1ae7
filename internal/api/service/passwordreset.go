package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/mailer"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/pkg/cryptox"
	"github.com/portalhq/portal/pkg/idx"
	"github.com/portalhq/portal/pkg/slogx"
)

var (
	// ErrResetTokenInvalid covers unknown, expired and already-used tokens
	// alike, so callers cannot probe which tokens exist.
	ErrResetTokenInvalid = errors.New("reset token invalid, expired or already used")

	ErrPasswordMismatch = errors.New("passwords do not match")
)

// PasswordResetService handles the forgot/validate/reset flow. Forgot never
// reveals whether an email is registered.
type PasswordResetService struct {
	Store     store.Store
	Mailer    mailer.Mailer
	WebAppURL string
	Env       string
}

// Forgot creates a reset token for the account, if one exists, and emails the
// reset link. It succeeds regardless of whether the email is registered.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	err = s.Store.PasswordResetTokens().CreatePasswordResetToken(ctx, domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.ResetTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	link := s.resetLink(token)

	if s.Env == "development" {
		l.Info("password reset link (not emailed in development)",
			slog.String("user_id", u.ID),
			slog.String("link", link),
		)
		return nil
	}

	// Delivery failures are logged, not returned, so the response stays
	// identical for known and unknown emails.
	if err := s.Mailer.SendPasswordReset(u.Email, u.Name, link); err != nil {
		l.Error("failed to send password reset email",
			slog.Any("error", err),
			slog.String("user_id", u.ID),
		)
	}
	return nil
}

// ValidateToken reports whether a reset token is still redeemable. It does
// not consume the token.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) error {
	now := time.Now().UTC()

	rt, err := s.Store.PasswordResetTokens().GetPasswordResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("get reset token: %w", err)
	}

	if !rt.Valid(now) {
		return ErrResetTokenInvalid
	}
	return nil
}

// Reset redeems the token and sets the new password. The password change and
// the token consumption happen in one transaction, so a redeemed token always
// corresponds to an applied password.
func (s *PasswordResetService) Reset(ctx context.Context, token, password, confirmation string) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	if password != confirmation {
		return ErrPasswordMismatch
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.PasswordResetTokens().GetPasswordResetToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrResetTokenInvalid
			}
			return fmt.Errorf("get reset token: %w", err)
		}

		if !rt.Valid(now) {
			return ErrResetTokenInvalid
		}

		if err := tx.Users().UpdatePasswordHash(ctx, rt.UserID, hash); err != nil {
			return fmt.Errorf("update password hash: %w", err)
		}

		if err := tx.PasswordResetTokens().MarkResetTokenUsed(ctx, rt.ID); err != nil {
			if errors.Is(err, store.ErrStaleUpdate) {
				return ErrResetTokenInvalid
			}
			return fmt.Errorf("mark reset token used: %w", err)
		}

		l.Info("password reset completed", slog.String("user_id", rt.UserID))
		return nil
	})
}

func (s *PasswordResetService) resetLink(token string) string {
	return s.WebAppURL + "/auth/redefine-password?token=" + token
}
