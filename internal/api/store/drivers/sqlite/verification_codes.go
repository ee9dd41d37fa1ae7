package sqlite

import (
	"context"
	"time"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/store"
)

type verificationCodesRepo struct {
	db dbtx
}

const codeColumns = `id, user_id, type, code, consumed, attempts, created_at, expires_at`

func scanCode(row rowScanner) (domain.VerificationCode, error) {
	var (
		c        domain.VerificationCode
		consumed int64
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.Type, &c.Code,
		&consumed, &c.Attempts, &c.CreatedAt, &c.ExpiresAt,
	)
	if err != nil {
		return domain.VerificationCode{}, err
	}

	c.Consumed = consumed != 0
	return c, nil
}

func (r *verificationCodesRepo) CreateVerificationCode(ctx context.Context, c domain.VerificationCode) (domain.VerificationCode, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (user_id, type, code, consumed, attempts, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Type, c.Code, boolToInt(c.Consumed), c.Attempts, c.CreatedAt, c.ExpiresAt,
	)
	if err != nil {
		return domain.VerificationCode{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.VerificationCode{}, err
	}

	c.ID = id
	return c, nil
}

func (r *verificationCodesRepo) GetVerificationCode(ctx context.Context, id int64) (domain.VerificationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM verification_codes WHERE id = ?`, id)

	c, err := scanCode(row)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return c, nil
}

// IncrementAttempts is a true in-database increment so concurrent failed
// verifies cannot read-modify-write from the same base value. The RETURNING
// clause hands back the post-increment row.
func (r *verificationCodesRepo) IncrementAttempts(ctx context.Context, id int64) (domain.VerificationCode, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = ? AND consumed = 0
		RETURNING `+codeColumns, id)

	c, err := scanCode(row)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return c, nil
}

// Consume flips consumed guarded on consumed=0, so of two racing verifies
// exactly one observes the transition.
func (r *verificationCodesRepo) Consume(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verification_codes SET consumed = 1 WHERE id = ? AND consumed = 0`, id)
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

func (r *verificationCodesRepo) RefreshVerificationCode(ctx context.Context, id int64, code string, createdAt, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes
		SET code = ?, attempts = 0, created_at = ?, expires_at = ?
		WHERE id = ? AND consumed = 0`,
		code, createdAt, expiresAt, id)
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

func (r *verificationCodesRepo) DeleteExpiredVerificationCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
