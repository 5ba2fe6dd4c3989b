package domain

import "time"

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInvited   UserStatus = "invited"
	UserStatusSuspended UserStatus = "suspended"
)

// Plan is the subscription tier.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanFamily Plan = "family"
)

// User is the identity record. The password hash lives in the credentials
// table (1:1) and is surfaced only on the credential-bearing lookup used by
// login.
type User struct {
	ID              string
	Email           string // unique, stored lowercase
	Name            string
	Timezone        string
	Status          UserStatus
	Plan            Plan
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserWithCredential pairs a user with its password hash for verification
// during login. The hash never leaves the service layer.
type UserWithCredential struct {
	User

	PasswordHash string // argon2id encoded
}
