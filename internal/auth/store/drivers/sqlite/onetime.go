package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
)

const (
	tableEmailVerifications = "email_verification_tokens"
	tablePasswordResets     = "password_reset_tokens"
)

// oneTimeRepo serves both single-use token tables; the schema is identical
// and only the table name differs.
type oneTimeRepo struct {
	db    dbtx
	table string
}

func (r *oneTimeRepo) Create(ctx context.Context, t domain.OneTimeToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO `+r.table+` (id, user_id, token_hash, expires_at, consumed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt,
		mapOptionalTime(t.ConsumedAt), t.CreatedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// Consume claims the token in one statement so a second attempt with the
// same token always loses. Expiry is deliberately not part of the predicate;
// the caller re-checks it on the returned record.
func (r *oneTimeRepo) Consume(ctx context.Context, tokenHash string, at time.Time) (domain.OneTimeToken, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE `+r.table+`
		SET consumed_at = ?
		WHERE token_hash = ? AND consumed_at IS NULL
		RETURNING id, user_id, token_hash, expires_at, consumed_at, created_at`,
		at, tokenHash)

	var (
		t          domain.OneTimeToken
		consumedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &consumedAt, &t.CreatedAt)
	if err != nil {
		return domain.OneTimeToken{}, mapNotFound(err)
	}
	t.ConsumedAt = mapNullTimePtr(consumedAt)
	return t, nil
}

func (r *oneTimeRepo) DeleteExpired(ctx context.Context, olderThan time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM `+r.table+`
		WHERE expires_at <= ? OR consumed_at IS NOT NULL`,
		olderThan)
	return err
}
