package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens
			(id, user_id, secret_hash, issued_at, expires_at, revoked_at, replaced_by_token_id, client_ip, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.SecretHash, t.IssuedAt, t.ExpiresAt,
		mapOptionalTime(t.RevokedAt), mapOptionalString(t.ReplacedByTokenID),
		t.ClientIP, t.UserAgent,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *refreshTokensRepo) GetRefreshTokenByID(
	ctx context.Context,
	id string,
) (domain.RefreshToken, domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, t.secret_hash, t.issued_at, t.expires_at,
		       t.revoked_at, t.replaced_by_token_id, t.client_ip, t.user_agent,
		       u.id, u.email, u.name, u.timezone, u.status, u.plan,
		       u.email_verified_at, u.last_login_at, u.created_at, u.updated_at
		FROM refresh_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = ?`, id)

	var (
		t            domain.RefreshToken
		u            domain.User
		revokedAt    sql.NullTime
		replacedBy   sql.NullString
		status, plan string
		verifiedAt   sql.NullTime
		lastLoginAt  sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.SecretHash, &t.IssuedAt, &t.ExpiresAt,
		&revokedAt, &replacedBy, &t.ClientIP, &t.UserAgent,
		&u.ID, &u.Email, &u.Name, &u.Timezone, &status, &plan,
		&verifiedAt, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, domain.User{}, mapNotFound(err)
	}
	t.RevokedAt = mapNullTimePtr(revokedAt)
	t.ReplacedByTokenID = mapNullStringPtr(replacedBy)
	u.Status = domain.UserStatus(status)
	u.Plan = domain.Plan(plan)
	u.EmailVerifiedAt = mapNullTimePtr(verifiedAt)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return t, u, nil
}

// RevokeRefreshToken is the atomic rotation gate: the update only lands on a
// still-active row, so concurrent refreshes against the same id cannot both
// win. Losers get store.ErrNotFound.
func (r *refreshTokensRepo) RevokeRefreshToken(
	ctx context.Context,
	id string,
	revokedAt time.Time,
	replacedByTokenID *string,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = ?, replaced_by_token_id = ?
		WHERE id = ? AND revoked_at IS NULL`,
		revokedAt, mapOptionalString(replacedByTokenID), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *refreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`,
		revokedAt, userID)
	return err
}

func (r *refreshTokensRepo) DeleteExpired(ctx context.Context, olderThan time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, olderThan)
	return err
}
