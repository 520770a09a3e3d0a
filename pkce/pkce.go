// Package pkce implements RFC 7636 Proof Key for Code Exchange: verifier
// generation, challenge derivation and constant-time verification.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/pkg/errors"
)

// Method identifies the transform used to derive a challenge from a verifier.
type Method string

const (
	// MethodS256 is the SHA-256 transform. Always generated, always preferred.
	MethodS256 Method = "S256"
	// MethodPlain passes the verifier through unchanged. Accepted for
	// verification only, never generated.
	MethodPlain Method = "plain"

	verifierBytes = 32 // 43 base64url chars, the RFC 7636 minimum
)

// Pair holds both halves of a PKCE exchange. The verifier stays with the
// client until the token request; only the challenge travels with the
// authorization request.
type Pair struct {
	Verifier  string
	Challenge string
	Method    Method
}

// NewPair generates a fresh verifier and its S256 challenge.
func NewPair() (*Pair, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	return &Pair{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		Method:    MethodS256,
	}, nil
}

// GenerateVerifier returns a cryptographically random base64url verifier
// of 43 characters.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "pkce.GenerateVerifier rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeriveChallenge applies the S256 transform to a verifier.
func DeriveChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// VerifyChallenge recomputes the challenge for the submitted verifier and
// compares it in constant time against the stored challenge. A mismatch is
// an authorization decision, not an error: callers map false onto
// invalid_grant.
func VerifyChallenge(verifier, challenge string, method Method) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	var derived string
	switch method {
	case MethodS256:
		derived = DeriveChallenge(verifier)
	case MethodPlain:
		derived = verifier
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}

// ValidMethod reports whether the challenge method is one this server accepts.
func ValidMethod(method Method) bool {
	return method == MethodS256 || method == MethodPlain
}

// ValidVerifier checks the RFC 7636 length bounds for a verifier.
func ValidVerifier(verifier string) bool {
	return len(verifier) >= 43 && len(verifier) <= 128
}
