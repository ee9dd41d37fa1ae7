package sqlite

import (
	"context"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/store"
)

type resetTokensRepo struct {
	db dbtx
}

const resetTokenColumns = `id, user_id, token, used, created_at, expires_at`

func scanResetToken(row rowScanner) (domain.PasswordResetToken, error) {
	var (
		t    domain.PasswordResetToken
		used int64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &used, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return domain.PasswordResetToken{}, err
	}

	t.Used = used != 0
	return t, nil
}

func (r *resetTokensRepo) CreatePasswordResetToken(ctx context.Context, t domain.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token, used, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Token, boolToInt(t.Used), t.CreatedAt, t.ExpiresAt,
	)
	return mapConstraint(err)
}

func (r *resetTokensRepo) GetPasswordResetToken(ctx context.Context, token string) (domain.PasswordResetToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+resetTokenColumns+` FROM password_reset_tokens WHERE token = ?`, token)

	t, err := scanResetToken(row)
	if err != nil {
		return domain.PasswordResetToken{}, mapNotFound(err)
	}
	return t, nil
}

// MarkResetTokenUsed is guarded on used=0 so a token can only ever be
// redeemed once, even under concurrent resets.
func (r *resetTokensRepo) MarkResetTokenUsed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrStaleUpdate
	}
	return nil
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
