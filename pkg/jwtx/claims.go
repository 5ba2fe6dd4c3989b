package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short access tokens, longer refresh grants; both can
// be overridden per-service via config.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens
	// when the user opts into remember-me.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the access-token claims. Keep changes additive so older
// frontends keep verifying.
type Claims struct {
	jwt.RegisteredClaims

	// Email is the user's normalized address.
	Email string `json:"email,omitempty"`

	// Plan is the subscription tier ("free", "pro", "family"). Informational;
	// entitlement checks re-read the user record.
	Plan string `json:"plan,omitempty"`

	// EmailVerified reports whether the user has confirmed their address.
	// This is an informational claim, not an enforced capability gate.
	EmailVerified bool `json:"email_verified"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
func NewAccessClaims(
	subject, email, plan string,
	emailVerified bool,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:         email,
		Plan:          plan,
		EmailVerified: emailVerified,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
