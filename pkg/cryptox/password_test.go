package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Use a throwaway pepper file so tests never touch a real one.
	pepperPath := filepath.Join(os.TempDir(), "ledgerdash-test-pepper")
	SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func TestHashSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"simple password", "password123"},
		{"complex password", "Tr0ub4dor&3!x$Zq"},
		{"long secret", strings.Repeat("a", 128)},
		{"empty secret", ""},
		{"unicode secret", "пароль密碼🔒"},
		{"token-shaped secret", "qN6cK1vB9sX2mP4w-Rt8Ly0eZ7uJ3hF5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashSecret(tt.secret)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Contains(t, parts[3], "m=")
			require.Contains(t, parts[3], "t=")
			require.Contains(t, parts[3], "p=")
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, VerifySecret(hash, tt.secret))
		})
	}
}

func TestHashSecret_UniqueSalts(t *testing.T) {
	secret := "samesecret"

	hash1, err := HashSecret(secret)
	require.NoError(t, err)
	hash2, err := HashSecret(secret)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")

	require.NoError(t, VerifySecret(hash1, secret))
	require.NoError(t, VerifySecret(hash2, secret))
}

func TestVerifySecret_Mismatch(t *testing.T) {
	hash, err := HashSecret("correct-secret")
	require.NoError(t, err)

	require.ErrorIs(t, VerifySecret(hash, "wrong-secret"), ErrMismatch)
	require.ErrorIs(t, VerifySecret(hash, ""), ErrMismatch)
	require.ErrorIs(t, VerifySecret(hash, "correct-secret "), ErrMismatch)
}

func TestVerifySecret_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"not PHC", "plainhash"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"bad parameters", "$argon2id$v=19$nope$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=19456,t=2,p=1$!!$aGFzaA"},
		{"bad hash encoding", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySecret(tt.hash, "anything")
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrMismatch)
		})
	}
}
