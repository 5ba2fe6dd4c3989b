package domain

import "time"

// OneTimeToken is a single-use, time-boxed grant: email verification or
// password reset. The opaque string handed to the user is never stored; the
// record keeps its SHA-256 fingerprint. Consumable at most once; expiry is
// re-checked at consumption time, not just at issuance.
type OneTimeToken struct {
	ID         string
	UserID     string
	TokenHash  string // SHA-256 fingerprint of the opaque token
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
