package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, name, timezone, status, plan,
	email_verified_at, last_login_at, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, timezone, status, plan, email_verified_at, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Timezone, string(u.Status), string(u.Plan),
		mapOptionalTime(u.EmailVerifiedAt), mapOptionalTime(u.LastLoginAt),
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, passwordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.UserWithCredential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.name, u.timezone, u.status, u.plan,
		       u.email_verified_at, u.last_login_at, u.created_at, u.updated_at,
		       c.password_hash
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE u.email = ?`, email)

	var (
		u            domain.UserWithCredential
		status, plan string
		verifiedAt   sql.NullTime
		lastLoginAt  sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Timezone, &status, &plan,
		&verifiedAt, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt,
		&u.PasswordHash,
	)
	if err != nil {
		return domain.UserWithCredential{}, mapNotFound(err)
	}
	u.Status = domain.UserStatus(status)
	u.Plan = domain.Plan(plan)
	u.EmailVerifiedAt = mapNullTimePtr(verifiedAt)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified_at = ?,
		    status = CASE status WHEN 'invited' THEN 'active' ELSE status END,
		    updated_at = ?
		WHERE id = ?`,
		at, at, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials SET password_hash = ?, updated_at = ? WHERE user_id = ?`,
		newHash, now, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at, at, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// scanUser reads the userColumns projection from a row.
func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u            domain.User
		status, plan string
		verifiedAt   sql.NullTime
		lastLoginAt  sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Timezone, &status, &plan,
		&verifiedAt, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Status = domain.UserStatus(status)
	u.Plan = domain.Plan(plan)
	u.EmailVerifiedAt = mapNullTimePtr(verifiedAt)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return u, nil
}

// requireRow maps a zero-row update to store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
