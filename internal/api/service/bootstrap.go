package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/pkg/cryptox"
	"github.com/portalhq/portal/pkg/idx"
	"github.com/portalhq/portal/pkg/slogx"
)

var ErrBootstrapIncomplete = errors.New("bootstrap admin requires name, email and password")

// BootstrapService seeds the first administrator account so a fresh
// deployment can be signed into. It only acts on an empty users table.
type BootstrapService struct {
	Store store.Store

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// EnsureAdmin creates the configured admin account when no users exist yet.
// Returns true when an account was created.
func (s *BootstrapService) EnsureAdmin(ctx context.Context) (bool, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("check users table: %w", err)
	}
	if !empty {
		return false, nil
	}

	if s.AdminName == "" || s.AdminEmail == "" || s.AdminPassword == "" {
		return false, ErrBootstrapIncomplete
	}

	hash, err := cryptox.HashPassword(s.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Name:         s.AdminName,
		Email:        s.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		// Another replica may have seeded between the emptiness check and
		// the insert; that outcome is fine.
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin user: %w", err)
	}

	l.Info("seeded bootstrap admin",
		slog.String("admin_user_id", admin.ID),
		slog.String("email", admin.Email),
	)
	return true, nil
}
