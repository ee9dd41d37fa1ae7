package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portalhq/portal/internal/api/cache"
	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/mailer"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/pkg/cryptox"
	"github.com/portalhq/portal/pkg/idx"
	"github.com/portalhq/portal/pkg/slogx"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailInUse            = errors.New("email already in use")
	ErrInvalidRole           = errors.New("invalid role")
	ErrSelfRoleChange        = errors.New("cannot change own role")
	ErrSelfStatusChange      = errors.New("cannot change own status")
	ErrInvalidPasswordConfig = errors.New("invalid password config")
)

// How a newly created account receives its first password.
const (
	PasswordConfigSendResetEmail = "sendResetEmail"
	PasswordConfigResetManually  = "resetManually"
	PasswordConfigPassword       = "password"
)

const (
	userListCacheTTL    = 5 * time.Minute
	userListCachePrefix = "users:page:"

	defaultPageLimit = 10
	maxPageLimit     = 100
)

type PasswordConfig struct {
	Type     string `json:"type"`
	Password string `json:"password,omitempty"`
}

type CreateUserInput struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Role           string         `json:"role"`
	PasswordConfig PasswordConfig `json:"passwordConfig"`
}

type CreateUserResult struct {
	User domain.PublicUser `json:"user"`

	// ResetLink is set only for resetManually, for the admin to hand over.
	ResetLink string `json:"resetLink,omitempty"`
}

// UserService covers account administration: creation, listing, role and
// status changes. Listings are cached; every mutation invalidates the cache.
type UserService struct {
	Store     store.Store
	Cache     *cache.Cache
	Mailer    mailer.Mailer
	WebAppURL string
}

// Create provisions a new account. Depending on the password config the
// first password arrives by reset email, by a manually shared reset link, or
// is set directly by the admin.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (CreateUserResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	if !domain.ValidRole(in.Role) {
		return CreateUserResult{}, ErrInvalidRole
	}

	password := in.PasswordConfig.Password
	switch in.PasswordConfig.Type {
	case PasswordConfigSendResetEmail, PasswordConfigResetManually:
		// The account starts with a throwaway password nobody knows; the
		// reset flow sets the real one.
		var err error
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return CreateUserResult{}, fmt.Errorf("generate password: %w", err)
		}
	case PasswordConfigPassword:
		if password == "" {
			return CreateUserResult{}, ErrInvalidPasswordConfig
		}
	default:
		return CreateUserResult{}, ErrInvalidPasswordConfig
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return CreateUserResult{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var resetLink string

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailInUse
			}
			return fmt.Errorf("create user: %w", err)
		}

		if in.PasswordConfig.Type == PasswordConfigPassword {
			return nil
		}

		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("generate reset token: %w", err)
		}

		err = tx.PasswordResetTokens().CreatePasswordResetToken(ctx, domain.PasswordResetToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(domain.ResetTokenTTL),
		})
		if err != nil {
			return fmt.Errorf("create reset token: %w", err)
		}

		resetLink = s.WebAppURL + "/auth/redefine-password?token=" + token
		return nil
	})
	if err != nil {
		return CreateUserResult{}, err
	}

	if in.PasswordConfig.Type == PasswordConfigSendResetEmail {
		if err := s.Mailer.SendAccountCreated(u.Email, u.Name, resetLink); err != nil {
			l.Error("failed to send account created email",
				slog.Any("error", err),
				slog.String("user_id", u.ID),
			)
		}
		resetLink = ""
	}

	s.invalidateListings(ctx)
	l.Info("user created", slog.String("user_id", u.ID), slog.String("role", u.Role))

	return CreateUserResult{User: u.Public(), ResetLink: resetLink}, nil
}

type UpdateUserInput struct {
	Name         string          `json:"name,omitempty"`
	Email        string          `json:"email,omitempty"`
	Role         string          `json:"role,omitempty"`
	ToggleStatus bool            `json:"toggleStatus,omitempty"`
	Password     *PasswordConfig `json:"passwordConfig,omitempty"`
}

type UpdateUserResult struct {
	User domain.PublicUser `json:"user"`

	// ResetLink is set only for resetManually, for the admin to hand over.
	ResetLink string `json:"resetLink,omitempty"`
}

// Update edits an account in place. Only provided fields change; a password
// config, when present, rotates the credential the same way Create seeds it.
// Admins cannot change their own role or toggle their own status.
func (s *UserService) Update(ctx context.Context, actorID, userID string, in UpdateUserInput) (UpdateUserResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	target, err := s.GetByID(ctx, userID)
	if err != nil {
		return UpdateUserResult{}, err
	}

	if in.Role != "" {
		if !domain.ValidRole(in.Role) {
			return UpdateUserResult{}, ErrInvalidRole
		}
		if actorID == userID && in.Role != target.Role {
			return UpdateUserResult{}, ErrSelfRoleChange
		}
	}
	if in.ToggleStatus && actorID == userID {
		return UpdateUserResult{}, ErrSelfStatusChange
	}

	name := in.Name
	if name == "" {
		name = target.Name
	}
	email := in.Email
	if email == "" {
		email = target.Email
	}

	var hash string
	if in.Password != nil {
		password := in.Password.Password
		switch in.Password.Type {
		case PasswordConfigSendResetEmail, PasswordConfigResetManually:
			password, err = cryptox.GeneratePassword()
			if err != nil {
				return UpdateUserResult{}, fmt.Errorf("generate password: %w", err)
			}
		case PasswordConfigPassword:
			if password == "" {
				return UpdateUserResult{}, ErrInvalidPasswordConfig
			}
		default:
			return UpdateUserResult{}, ErrInvalidPasswordConfig
		}

		hash, err = cryptox.HashPassword(password)
		if err != nil {
			return UpdateUserResult{}, fmt.Errorf("hash password: %w", err)
		}
	}

	var resetLink string

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateProfile(ctx, userID, name, email); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailInUse
			}
			return fmt.Errorf("update profile: %w", err)
		}

		if in.Role != "" && in.Role != target.Role {
			if err := tx.Users().UpdateRole(ctx, userID, in.Role); err != nil {
				return fmt.Errorf("update role: %w", err)
			}
		}
		if in.ToggleStatus {
			if err := tx.Users().SetActive(ctx, userID, !target.IsActive); err != nil {
				return fmt.Errorf("set active: %w", err)
			}
		}
		if hash != "" {
			if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
				return fmt.Errorf("update password hash: %w", err)
			}
		}

		if in.Password == nil || in.Password.Type == PasswordConfigPassword {
			return nil
		}

		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("generate reset token: %w", err)
		}

		err = tx.PasswordResetTokens().CreatePasswordResetToken(ctx, domain.PasswordResetToken{
			ID:        idx.New().String(),
			UserID:    userID,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(domain.ResetTokenTTL),
		})
		if err != nil {
			return fmt.Errorf("create reset token: %w", err)
		}

		resetLink = s.WebAppURL + "/auth/redefine-password?token=" + token
		return nil
	})
	if err != nil {
		return UpdateUserResult{}, err
	}

	if in.Password != nil && in.Password.Type == PasswordConfigSendResetEmail {
		if err := s.Mailer.SendPasswordReset(email, name, resetLink); err != nil {
			l.Error("failed to send password reset email",
				slog.Any("error", err),
				slog.String("user_id", userID),
			)
		}
		resetLink = ""
	}

	s.invalidateListings(ctx)
	l.Info("user updated", slog.String("user_id", userID))

	updated, err := s.GetByID(ctx, userID)
	if err != nil {
		return UpdateUserResult{}, err
	}
	return UpdateUserResult{User: updated.Public(), ResetLink: resetLink}, nil
}

// List returns one page of users, newest first. Pages are served from cache
// for a few minutes; mutations drop the cache.
func (s *UserService) List(ctx context.Context, page, limit int) (domain.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	key := fmt.Sprintf("%s%d:limit:%d", userListCachePrefix, page, limit)

	if raw, err := s.Cache.Get(ctx, key); err == nil {
		var cached domain.UserPage
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	users, total, err := s.Store.Users().ListUsers(ctx, (page-1)*limit, limit)
	if err != nil {
		return domain.UserPage{}, fmt.Errorf("list users: %w", err)
	}

	data := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		data = append(data, users[i].Public())
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	result := domain.UserPage{
		Data: data,
		Pagination: domain.Pagination{
			Total:      total,
			TotalPages: totalPages,
			Page:       page,
			Limit:      limit,
		},
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := s.Cache.Set(ctx, key, raw, userListCacheTTL); err != nil {
			slogx.FromContext(ctx).Warn("failed to cache user listing", slog.Any("error", err))
		}
	}

	return result, nil
}

// GetByID returns a single user.
func (s *UserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateRole changes a user's role. Admins cannot change their own role, so
// the system can never demote its last administrator by accident.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID, role string) (domain.User, error) {
	if actorID == userID {
		return domain.User{}, ErrSelfRoleChange
	}
	if !domain.ValidRole(role) {
		return domain.User{}, ErrInvalidRole
	}

	if err := s.Store.Users().UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update role: %w", err)
	}

	s.invalidateListings(ctx)
	slogx.FromContext(ctx).Info("user role updated",
		slog.String("user_id", userID),
		slog.String("role", role),
	)
	return s.GetByID(ctx, userID)
}

// SetStatus activates or deactivates a user. Self-deactivation is rejected.
func (s *UserService) SetStatus(ctx context.Context, actorID, userID string, active bool) (domain.User, error) {
	if actorID == userID {
		return domain.User{}, ErrSelfStatusChange
	}

	if err := s.Store.Users().SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("set active: %w", err)
	}

	s.invalidateListings(ctx)
	slogx.FromContext(ctx).Info("user status updated",
		slog.String("user_id", userID),
		slog.Bool("active", active),
	)
	return s.GetByID(ctx, userID)
}

func (s *UserService) invalidateListings(ctx context.Context) {
	if err := s.Cache.DeletePrefix(ctx, userListCachePrefix); err != nil {
		slogx.FromContext(ctx).Warn("failed to invalidate user listing cache", slog.Any("error", err))
	}
}
