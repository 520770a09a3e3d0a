// Package token issues and validates the JWTs the identity provider
// signs: bearer access tokens for the APIs and OIDC ID tokens for the
// relying parties.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"weatherid/oauth2"
)

const (
	defaultAccessTokenTTL = time.Hour
	defaultIDTokenTTL     = 5 * time.Minute
)

// Identity is the authenticated subject tokens are issued for.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Scope    string `json:"scope,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Scopes returns the scope claim split into its tokens.
func (c *AccessClaims) Scopes() []string {
	return oauth2.SplitScopes(c.Scope)
}

// HasScope reports whether the scope claim contains the given scope.
func (c *AccessClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes() {
		if s == scope {
			return true
		}
	}
	return false
}

// IDClaims is the payload of an OIDC ID token.
type IDClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Manager mints signed tokens for a single issuer.
type Manager struct {
	issuer    string
	signer    Signer
	accessTTL time.Duration
	idTTL     time.Duration
	nowFunc   func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNowFunc overrides the clock, for tests that pin iat/exp.
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.nowFunc = now }
}

// WithAccessTokenTTL sets the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.accessTTL = ttl }
}

// WithIDTokenTTL sets the ID token lifetime.
func WithIDTokenTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.idTTL = ttl }
}

func NewManager(issuer string, signer Signer, opts ...ManagerOption) *Manager {
	m := &Manager{
		issuer:    issuer,
		signer:    signer,
		accessTTL: defaultAccessTokenTTL,
		idTTL:     defaultIDTokenTTL,
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Signer exposes the manager's signer so servers can publish its key set.
func (m *Manager) Signer() Signer {
	return m.signer
}

// IssueAccessToken signs a bearer token for the given audiences and
// scopes. The scope claim is space separated; iat and exp are absolute
// instants from the manager's clock. Returns the compact token and its
// lifetime in seconds for the expires_in response field.
func (m *Manager) IssueAccessToken(identity Identity, clientID string, audiences, scopes []string) (string, int64, error) {
	now := m.nowFunc()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identity.Subject,
			Audience:  jwt.ClaimStrings(audiences),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
		Scope:    oauth2.JoinScopes(scopes),
		ClientID: clientID,
		Email:    identity.Email,
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(m.accessTTL.Seconds()), nil
}

// IssueIDToken signs an OIDC ID token addressed to the client, echoing the
// nonce from the authorization request.
func (m *Manager) IssueIDToken(identity Identity, clientID, nonce string) (string, error) {
	now := m.nowFunc()
	claims := &IDClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identity.Subject,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.idTTL)),
		},
		Nonce: nonce,
		Email: identity.Email,
		Name:  identity.Name,
	}
	return m.signer.Sign(claims)
}
