package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"128-bit token", TokenSize128},
		{"256-bit token", TokenSize256},
		{"custom size", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("token-one")
	fp1b := FingerprintToken("token-one")
	fp2 := FingerprintToken("token-two")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}

func TestSplitComposite(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		composite := JoinComposite("some-id", "some-secret")
		id, secret, err := SplitComposite(composite)
		require.NoError(t, err)
		require.Equal(t, "some-id", id)
		require.Equal(t, "some-secret", secret)
	})

	t.Run("malformed input", func(t *testing.T) {
		for _, in := range []string{
			"",
			"nodot",
			".secretonly",
			"idonly.",
			"a.b.c",
			".",
		} {
			_, _, err := SplitComposite(in)
			require.ErrorIs(t, err, ErrMalformedComposite, "input %q", in)
		}
	})
}
