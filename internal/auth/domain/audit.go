package domain

import "time"

// ActorSystem is the actor id recorded when no authenticated user is known
// (e.g. logout, which never looks up the token's owner).
const ActorSystem = "system"

// Audit action names. One per sensitive operation.
const (
	AuditSignup               = "auth.signup"
	AuditLogin                = "auth.login"
	AuditRefresh              = "auth.refresh"
	AuditLogout               = "auth.logout"
	AuditPasswordResetRequest = "auth.password_reset_request"
	AuditPasswordReset        = "auth.password_reset"
	AuditEmailVerified        = "auth.email_verified"
	AuditVerificationResent   = "auth.verification_resent"
)

// AuditEvent is an append-only log entry written as a side effect of every
// sensitive operation. Never mutated or read back by this service.
type AuditEvent struct {
	ID        string
	Action    string
	ActorID   string // user id or ActorSystem
	UserID    *string
	ClientIP  string
	UserAgent string
	Metadata  map[string]string
	CreatedAt time.Time
}
