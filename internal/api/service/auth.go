package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/mailer"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/pkg/cryptox"
	"github.com/portalhq/portal/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	ErrCodeNotFound    = errors.New("verification code not found")
	ErrCodeAlreadyUsed = errors.New("verification code already used")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrResendCooldown  = errors.New("resend requested too soon")

	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrUserInactiveOrMissing = errors.New("user inactive or not found")
)

// AuthService implements the login challenge flow: password check, emailed
// one-time code, code verification and token issuance.
type AuthService struct {
	Store  store.Store
	Tokens *TokenIssuer
	Mailer mailer.Mailer

	// Env controls code delivery: in development the code is logged
	// instead of emailed, so local setups need no SMTP relay.
	Env string
}

// Login validates the user's credentials and opens a verification challenge.
// The returned id is what the client passes back to VerifyOTP.
func (s *AuthService) Login(ctx context.Context, email, password string) (int64, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("get user by email: %w", err)
	}

	if !u.IsActive {
		return 0, ErrAccountDisabled
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login password check failed", slog.String("user_id", u.ID))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("verify password: %w", err)
	}

	code, err := generateLoginCode()
	if err != nil {
		return 0, fmt.Errorf("generate login code: %w", err)
	}

	created, err := s.Store.VerificationCodes().CreateVerificationCode(ctx, domain.VerificationCode{
		UserID:    u.ID,
		Type:      domain.CodeTypeLogin,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.CodeTTL),
	})
	if err != nil {
		return 0, fmt.Errorf("create verification code: %w", err)
	}

	if err := s.deliverCode(ctx, u, code); err != nil {
		return 0, err
	}

	l.Info("login challenge created",
		slog.String("user_id", u.ID),
		slog.Int64("challenge_id", created.ID),
	)
	return created.ID, nil
}

// VerifyOTP checks the submitted code against the challenge. The checks run
// in a fixed order so each failure mode keeps a stable response: missing,
// already used, expired, locked out, then wrong code. A wrong code burns one
// attempt; three burned attempts lock the challenge for good.
func (s *AuthService) VerifyOTP(ctx context.Context, challengeID int64, code string, rememberMe bool) (domain.AuthResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	vc, err := s.Store.VerificationCodes().GetVerificationCode(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResult{}, ErrCodeNotFound
		}
		return domain.AuthResult{}, fmt.Errorf("get verification code: %w", err)
	}

	switch {
	case vc.Consumed:
		return domain.AuthResult{}, ErrCodeAlreadyUsed
	case vc.Expired(now):
		return domain.AuthResult{}, ErrCodeExpired
	case vc.Locked():
		return domain.AuthResult{}, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(vc.Code), []byte(code)) != 1 {
		updated, err := s.Store.VerificationCodes().IncrementAttempts(ctx, challengeID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.AuthResult{}, fmt.Errorf("increment attempts: %w", err)
		}
		if err == nil {
			l.Info("verification code mismatch",
				slog.Int64("challenge_id", challengeID),
				slog.Int("attempts", updated.Attempts),
			)
		}
		return domain.AuthResult{}, ErrInvalidCode
	}

	if err := s.Store.VerificationCodes().Consume(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrStaleUpdate) {
			return domain.AuthResult{}, ErrCodeAlreadyUsed
		}
		return domain.AuthResult{}, fmt.Errorf("consume verification code: %w", err)
	}

	u, err := s.Store.Users().GetUserByID(ctx, vc.UserID)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("get user: %w", err)
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID); err != nil {
		return domain.AuthResult{}, fmt.Errorf("update last login: %w", err)
	}

	access, err := s.Tokens.IssueAccessToken(u, rememberMe, now)
	if err != nil {
		return domain.AuthResult{}, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(u.ID, now)
	if err != nil {
		return domain.AuthResult{}, err
	}

	l.Info("login verified", slog.String("user_id", u.ID))
	return domain.AuthResult{
		User:         u.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// ResendOTP replaces the challenge's code and restarts its expiry window.
// Resends are throttled to one per cooldown period, measured from the
// challenge's creation time, which the resend itself resets.
func (s *AuthService) ResendOTP(ctx context.Context, challengeID int64) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	vc, err := s.Store.VerificationCodes().GetVerificationCode(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("get verification code: %w", err)
	}

	if vc.Consumed {
		return ErrCodeAlreadyUsed
	}
	if now.Sub(vc.CreatedAt) < domain.ResendCooldown {
		return ErrResendCooldown
	}

	u, err := s.Store.Users().GetUserByID(ctx, vc.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	code, err := generateLoginCode()
	if err != nil {
		return fmt.Errorf("generate login code: %w", err)
	}

	err = s.Store.VerificationCodes().RefreshVerificationCode(ctx, challengeID, code, now, now.Add(domain.CodeTTL))
	if err != nil {
		if errors.Is(err, store.ErrStaleUpdate) {
			return ErrCodeAlreadyUsed
		}
		return fmt.Errorf("refresh verification code: %w", err)
	}

	if err := s.deliverCode(ctx, u, code); err != nil {
		return err
	}

	l.Info("login challenge resent",
		slog.String("user_id", u.ID),
		slog.Int64("challenge_id", challengeID),
	)
	return nil
}

// Refresh exchanges a refresh token for a new long-lived access token. The
// user is re-loaded so deactivated or deleted accounts stop refreshing
// immediately, regardless of what the token says.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userID string) (domain.IssuedToken, error) {
	now := time.Now().UTC()

	claims, err := s.Tokens.Signer.Verify(refreshToken)
	if err != nil {
		return domain.IssuedToken{}, ErrInvalidRefreshToken
	}
	if claims.Subject != userID {
		return domain.IssuedToken{}, ErrInvalidRefreshToken
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IssuedToken{}, ErrUserInactiveOrMissing
		}
		return domain.IssuedToken{}, fmt.Errorf("get user: %w", err)
	}
	if !u.IsActive {
		return domain.IssuedToken{}, ErrUserInactiveOrMissing
	}

	return s.Tokens.IssueAccessToken(u, true, now)
}

func (s *AuthService) deliverCode(ctx context.Context, u domain.User, code string) error {
	if s.Env == "development" {
		slogx.FromContext(ctx).Info("login code (not emailed in development)",
			slog.String("user_id", u.ID),
			slog.String("code", code),
		)
		return nil
	}

	if err := s.Mailer.SendLoginCode(u.Email, u.Name, code); err != nil {
		return fmt.Errorf("send login code: %w", err)
	}
	return nil
}

// generateLoginCode returns a uniform six digit code, 100000 through 999999.
func generateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
