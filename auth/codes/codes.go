// Package codes stores single-use authorization codes. A code may be
// consumed exactly once; concurrent redemptions of the same code have one
// winner and the rest fail.
package codes

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"weatherid/oauth2"
)

var (
	// ErrCodeNotFound - the code was never issued, expired away, or was
	// already redeemed and purged.
	ErrCodeNotFound = errors.New("authorization code not found")
	// ErrCodeConsumed - the code was already redeemed.
	ErrCodeConsumed = errors.New("authorization code already consumed")
)

// AuthorizationCode binds a one-time code to everything the token endpoint
// must re-verify: client, redirect URI, granted scopes, PKCE challenge,
// the authenticated subject, and an absolute expiry.
type AuthorizationCode struct {
	Code                string                `json:"code"`
	ClientID            string                `json:"clientId"`
	Subject             string                `json:"subject"`
	Email               string                `json:"email"`
	Name                string                `json:"name,omitempty"`
	RedirectURI         string                `json:"redirectUri"`
	Scopes              []string              `json:"scopes"`
	Nonce               string                `json:"nonce,omitempty"`
	CodeChallenge       string                `json:"codeChallenge"`
	CodeChallengeMethod oauth2.CodeMethodType `json:"codeChallengeMethod"`
	IssuedAt            time.Time             `json:"issuedAt"`
	ExpiresAt           time.Time             `json:"expiresAt"`
}

// Expired reports whether the code's lifetime has passed at the given
// instant. Expiry is checked by the redeemer, not the store, so that a
// clock can be injected for tests.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Repo persists authorization codes. Consume atomically retires the code:
// at most one caller ever receives it back.
type Repo interface {
	Save(ctx context.Context, code *AuthorizationCode) error
	Consume(ctx context.Context, value string) (*AuthorizationCode, error)
}

// GenerateValue returns a fresh unguessable code value.
func GenerateValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "codes.GenerateValue rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
