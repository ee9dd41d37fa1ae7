package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/internal/api/store/drivers/sqlite"
	"github.com/portalhq/portal/pkg/cryptox"
	"github.com/portalhq/portal/pkg/idx"
	"github.com/portalhq/portal/pkg/jwtx"
)

func TestMain(m *testing.M) {
	cryptox.SetPepperPath(filepath.Join(os.TempDir(), "portal-service-test-pepper"))
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestIssuer(t *testing.T, env string) *TokenIssuer {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "portal-api")
	require.NoError(t, err)

	return &TokenIssuer{Signer: signer, Env: env}
}

type sentMail struct {
	To, Name, Body string
}

// fakeMailer records outgoing mail instead of sending it.
type fakeMailer struct {
	mu       sync.Mutex
	Codes    []sentMail
	Resets   []sentMail
	Welcomes []sentMail
}

func (f *fakeMailer) SendLoginCode(to, name, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Codes = append(f.Codes, sentMail{To: to, Name: name, Body: code})
	return nil
}

func (f *fakeMailer) SendPasswordReset(to, name, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resets = append(f.Resets, sentMail{To: to, Name: name, Body: link})
	return nil
}

func (f *fakeMailer) SendAccountCreated(to, name, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Welcomes = append(f.Welcomes, sentMail{To: to, Name: name, Body: link})
	return nil
}

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.Codes)
	return f.Codes[len(f.Codes)-1].Body
}

func seedUser(t *testing.T, s store.Store, email, password string, active bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleMember,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}
