package store

import (
	"context"
	"errors"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. Sub-repositories keep concerns tidy and
// let transactional code reuse the same method set.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	EmailVerifications() OneTimeTokens
	PasswordResets() OneTimeTokens
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn errors
	// and committing otherwise. Multi-step operations that must be atomic
	// (signup's user+credential write, refresh rotation, reset-and-revoke)
	// go through here.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts the user and its credential row as one write path.
	// The unique-email index is the source of truth for duplicate signups;
	// violation surfaces as ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User, passwordHash string) error

	// GetUserByEmail returns the credential-bearing variant for login.
	// The email must already be normalized (trimmed, lowercased).
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithCredential, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// MarkEmailVerified sets email_verified_at and promotes invited users
	// to active.
	MarkEmailVerified(ctx context.Context, userID string, at time.Time) error

	// UpdatePasswordHash replaces the credential hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateLastLogin stamps last_login_at.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetStatus mutates the account lifecycle state.
	SetStatus(ctx context.Context, userID string, status domain.UserStatus) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByID returns the token and its owning user.
	GetRefreshTokenByID(ctx context.Context, id string) (domain.RefreshToken, domain.User, error)

	// RevokeRefreshToken revokes a single token via a conditional update
	// gated on revoked_at IS NULL. When two refreshes race on the same id,
	// exactly one wins; the loser gets ErrNotFound and must treat the token
	// as already revoked.
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time, replacedByTokenID *string) error

	// RevokeAllForUser revokes every active token of a user (password reset).
	RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) error

	// DeleteExpired removes tokens past their expiry (housekeeping).
	DeleteExpired(ctx context.Context, olderThan time.Time) error
}

// OneTimeTokens is the shared contract for email-verification and
// password-reset token repositories.
type OneTimeTokens interface {
	// Create stores a freshly minted single-use token record.
	Create(ctx context.Context, t domain.OneTimeToken) error

	// Consume atomically marks the token consumed if and only if it has not
	// been consumed before, and returns the consumed record. Absent or
	// already-consumed tokens yield ErrNotFound. Expiry is NOT checked
	// here; the caller re-checks it on the returned record so that
	// "already consumed" takes priority over "expired".
	Consume(ctx context.Context, tokenHash string, at time.Time) (domain.OneTimeToken, error)

	// DeleteExpired removes expired or consumed records (housekeeping).
	DeleteExpired(ctx context.Context, olderThan time.Time) error
}

type AuditEvents interface {
	// CreateAuditEvent appends one audit record. Events are never updated
	// or read back by this service.
	CreateAuditEvent(ctx context.Context, e domain.AuditEvent) error
}
