// Package clients models registered OAuth2 clients and the registration
// checks the authorization and token endpoints rely on.
package clients

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"weatherid/oauth2"
)

// Type distinguishes clients that can keep a secret from those that cannot.
type Type string

const (
	// Confidential clients authenticate with a secret at the token endpoint.
	Confidential Type = "confidential"
	// Public clients have no secret and must use PKCE.
	Public Type = "public"
)

// ErrClientNotFound is returned by repositories when no registration
// matches the client id.
var ErrClientNotFound = errors.New("client not found")

// Client is a registered relying party or service client.
type Client struct {
	ID           string
	Name         string
	Type         Type
	SecretHash   []byte
	RedirectURIs []string
	Scopes       []string
	GrantTypes   []oauth2.GrantType
	RequirePKCE  bool
}

// Repo is the client registration store.
type Repo interface {
	FindByID(ctx context.Context, id string) (*Client, error)
	Save(ctx context.Context, client *Client) error
}

// HashSecret derives the stored form of a client secret.
func HashSecret(secret string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "clients.HashSecret")
	}
	return hash, nil
}

// IsPublic reports whether the client is registered without a secret.
func (c *Client) IsPublic() bool {
	return c.Type == Public
}

// CheckSecret verifies a presented secret against the stored hash. Always
// false for public clients.
func (c *Client) CheckSecret(secret string) bool {
	if c.IsPublic() || len(c.SecretHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.SecretHash, []byte(secret)) == nil
}

// AllowsGrant reports whether the grant type is on the client's allow-list.
func (c *Client) AllowsGrant(grant oauth2.GrantType) bool {
	for _, g := range c.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}

// AllowsRedirectURI checks the redirect URI against the registration by
// exact string match.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AllowedScopes intersects the requested scopes with the registration,
// preserving request order.
func (c *Client) AllowedScopes(requested []string) []string {
	var granted []string
	for _, scope := range requested {
		for _, registered := range c.Scopes {
			if scope == registered {
				granted = append(granted, scope)
				break
			}
		}
	}
	return granted
}
