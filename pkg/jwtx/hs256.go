package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HMAC secret size we accept. Anything
// shorter than the hash output weakens HS256.
const MinSecretLength = 32

var (
	ErrSecretTooShort = errors.New("jwtx: signing secret must be at least 32 bytes")
	ErrInvalidToken   = errors.New("jwtx: invalid token")
)

// Codec signs and verifies access tokens with a shared HS256 secret. The
// session service only signs; the transport layer (and sibling services
// holding the same secret) verify.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
}

// NewCodec builds an HS256 codec for the given issuer/audience pair.
func NewCodec(secret []byte, issuer, audience string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &Codec{secret: secret, issuer: issuer, audience: audience}, nil
}

// Sign produces a compact signed token for the given claims.
func (c *Codec) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a compact token, enforcing the signing method,
// issuer, audience, and time-based claims.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
