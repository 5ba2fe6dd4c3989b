package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// ErrMalformedComposite reports a refresh-token string that is not exactly
// "id.secret" with both halves non-empty.
var ErrMalformedComposite = errors.New("cryptox: malformed composite token")

// GenerateToken creates a cryptographically secure random token of the given
// byte length, base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded. Single-use tokens (email verification, password reset)
// are stored as fingerprints so the database never holds the opaque value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// JoinComposite builds the externally visible refresh-token string. The id is
// the plaintext lookup key; the secret is only ever stored as its argon2 hash.
func JoinComposite(id, secret string) string {
	return id + "." + secret
}

// SplitComposite parses a composite refresh token into its id and secret
// halves. The token must contain exactly one dot and both halves must be
// non-empty; anything else is ErrMalformedComposite.
func SplitComposite(token string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" || strings.Contains(secret, ".") {
		return "", "", ErrMalformedComposite
	}
	return id, secret, nil
}
