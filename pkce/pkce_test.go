package pkce_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"weatherid/pkce"
)

// RFC 7636 appendix B test vector.
const (
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestGenerateVerifier_LengthAndUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v, err := pkce.GenerateVerifier()
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(v), 43)
		require.True(t, pkce.ValidVerifier(v))
		require.False(t, seen[v], "verifiers must not repeat")
		seen[v] = true
	}
}

func TestDeriveChallenge_RFCVector(t *testing.T) {
	require.Equal(t, rfcChallenge, pkce.DeriveChallenge(rfcVerifier))
}

func TestVerifyChallenge_RoundTrip(t *testing.T) {
	pair, err := pkce.NewPair()
	require.NoError(t, err)
	require.Equal(t, pkce.MethodS256, pair.Method)
	require.True(t, pkce.VerifyChallenge(pair.Verifier, pair.Challenge, pair.Method))
}

func TestVerifyChallenge(t *testing.T) {
	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    pkce.Method
		want      bool
	}{
		{"valid S256", rfcVerifier, rfcChallenge, pkce.MethodS256, true},
		{"wrong verifier", "not-the-right-verifier-but-still-43-chars-x", rfcChallenge, pkce.MethodS256, false},
		{"wrong challenge", rfcVerifier, "tampered-challenge-value", pkce.MethodS256, false},
		{"plain match", "plaintext-verifier", "plaintext-verifier", pkce.MethodPlain, true},
		{"plain mismatch", "plaintext-verifier", "other-value", pkce.MethodPlain, false},
		{"unknown method", rfcVerifier, rfcChallenge, pkce.Method("S512"), false},
		{"empty verifier", "", rfcChallenge, pkce.MethodS256, false},
		{"empty challenge", rfcVerifier, "", pkce.MethodS256, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, pkce.VerifyChallenge(tt.verifier, tt.challenge, tt.method))
		})
	}
}

func TestValidMethod(t *testing.T) {
	require.True(t, pkce.ValidMethod(pkce.MethodS256))
	require.True(t, pkce.ValidMethod(pkce.MethodPlain))
	require.False(t, pkce.ValidMethod(""))
	require.False(t, pkce.ValidMethod("s256"))
}

func TestValidVerifier_Bounds(t *testing.T) {
	short := make([]byte, 42)
	long := make([]byte, 129)
	ok := make([]byte, 43)
	for _, b := range [][]byte{short, long, ok} {
		for i := range b {
			b[i] = 'a'
		}
	}
	require.False(t, pkce.ValidVerifier(string(short)))
	require.False(t, pkce.ValidVerifier(string(long)))
	require.True(t, pkce.ValidVerifier(string(ok)))
}
