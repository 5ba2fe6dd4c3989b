package domain

import "time"

// RefreshToken models a stored rotating session grant. The record id is the
// public half of the composite token handed to clients; the secret half is
// stored only as its argon2 hash.
//
// A token is usable only while RevokedAt is nil and ExpiresAt is in the
// future. Rotation links the retired token to its successor through
// ReplacedByTokenID, which is what makes replay detection possible.
type RefreshToken struct {
	ID                string
	UserID            string
	SecretHash        string // argon2id encoded
	IssuedAt          time.Time
	ExpiresAt         time.Time
	RevokedAt         *time.Time
	ReplacedByTokenID *string
	ClientIP          string // audit only
	UserAgent         string // audit only
}

// Active reports whether the token is still usable at the given instant.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Session is what the session service returns from signup/login/refresh:
// a signed access token and a composite refresh token, always as a pair,
// with their absolute expiry timestamps.
type Session struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
