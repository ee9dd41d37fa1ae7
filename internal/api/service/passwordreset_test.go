package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/pkg/cryptox"
)

func newResetService(t *testing.T) (*PasswordResetService, *fakeMailer) {
	t.Helper()

	mail := &fakeMailer{}
	return &PasswordResetService{
		Store:     newTestStore(t),
		Mailer:    mail,
		WebAppURL: "https://app.example.com",
		Env:       "production",
	}, mail
}

func TestForgot(t *testing.T) {
	ctx := context.Background()
	svc, mail := newResetService(t)

	u := seedUser(t, svc.Store, "alice@example.com", "correct horse", true)

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		require.NoError(t, svc.Forgot(ctx, "nobody@example.com"))
		require.Empty(t, mail.Resets)
	})

	t.Run("known email gets a reset link", func(t *testing.T) {
		require.NoError(t, svc.Forgot(ctx, u.Email))
		require.Len(t, mail.Resets, 1)

		link := mail.Resets[0].Body
		require.True(t, strings.HasPrefix(link, "https://app.example.com/auth/redefine-password?token="))

		token := strings.TrimPrefix(link, "https://app.example.com/auth/redefine-password?token=")
		require.Len(t, token, cryptox.TokenSize256*2)

		rt, err := svc.Store.PasswordResetTokens().GetPasswordResetToken(ctx, token)
		require.NoError(t, err)
		require.Equal(t, u.ID, rt.UserID)
		require.False(t, rt.Used)
	})
}

func TestValidateResetToken(t *testing.T) {
	ctx := context.Background()
	svc, mail := newResetService(t)

	u := seedUser(t, svc.Store, "alice@example.com", "correct horse", true)

	issue := func(t *testing.T) string {
		t.Helper()
		require.NoError(t, svc.Forgot(ctx, u.Email))
		link := mail.Resets[len(mail.Resets)-1].Body
		return strings.TrimPrefix(link, "https://app.example.com/auth/redefine-password?token=")
	}

	t.Run("unknown token", func(t *testing.T) {
		require.ErrorIs(t, svc.ValidateToken(ctx, "deadbeef"), ErrResetTokenInvalid)
	})

	t.Run("fresh token is valid", func(t *testing.T) {
		require.NoError(t, svc.ValidateToken(ctx, issue(t)))
	})

	t.Run("used token", func(t *testing.T) {
		token := issue(t)

		rt, err := svc.Store.PasswordResetTokens().GetPasswordResetToken(ctx, token)
		require.NoError(t, err)

		require.NoError(t, svc.Store.PasswordResetTokens().MarkResetTokenUsed(ctx, rt.ID))
		require.ErrorIs(t, svc.ValidateToken(ctx, token), ErrResetTokenInvalid)
	})

	t.Run("validation does not consume", func(t *testing.T) {
		token := issue(t)
		require.NoError(t, svc.ValidateToken(ctx, token))
		require.NoError(t, svc.ValidateToken(ctx, token))
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, mail := newResetService(t)

	u := seedUser(t, svc.Store, "alice@example.com", "old password!", true)

	issue := func(t *testing.T) string {
		t.Helper()
		require.NoError(t, svc.Forgot(ctx, u.Email))
		link := mail.Resets[len(mail.Resets)-1].Body
		return strings.TrimPrefix(link, "https://app.example.com/auth/redefine-password?token=")
	}

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := svc.Reset(ctx, issue(t), "new password!", "different!")
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("unknown token", func(t *testing.T) {
		err := svc.Reset(ctx, "deadbeef", "new password!", "new password!")
		require.ErrorIs(t, err, ErrResetTokenInvalid)
	})

	t.Run("success changes password and consumes token", func(t *testing.T) {
		token := issue(t)

		require.NoError(t, svc.Reset(ctx, token, "new password!", "new password!"))

		fresh, err := svc.Store.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("new password!", fresh.PasswordHash))
		require.ErrorIs(t, cryptox.VerifyPassword("old password!", fresh.PasswordHash), cryptox.ErrPasswordMismatch)

		// Token is single use
		err = svc.Reset(ctx, token, "another pass!", "another pass!")
		require.ErrorIs(t, err, ErrResetTokenInvalid)
	})

	t.Run("expired token leaves password untouched", func(t *testing.T) {
		now := time.Now().UTC()
		expired := domain.PasswordResetToken{
			ID:        "expired-token-id",
			UserID:    u.ID,
			Token:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			CreatedAt: now.Add(-time.Hour),
			ExpiresAt: now.Add(-30 * time.Minute),
		}
		require.NoError(t, svc.Store.PasswordResetTokens().CreatePasswordResetToken(ctx, expired))

		err := svc.Reset(ctx, expired.Token, "sneaky pass!", "sneaky pass!")
		require.ErrorIs(t, err, ErrResetTokenInvalid)

		fresh, err := svc.Store.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.ErrorIs(t, cryptox.VerifyPassword("sneaky pass!", fresh.PasswordHash), cryptox.ErrPasswordMismatch)
	})
}
