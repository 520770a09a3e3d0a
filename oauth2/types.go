package oauth2

import (
	"strings"

	"weatherid/pkce"
)

// ResponseType represents the OAuth 2.0 response type requested at the
// authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow, the only flow
	// this server supports.
	CodeResponseType ResponseType = "code"
)

// ResponseModeType denotes how the authorization response parameters are
// returned to the client's redirect URI.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Example: https://client.example.com/callback?code=ABC123&state=xyz
	QueryResponseMode ResponseModeType = "query"

	// FragmentResponseMode returns parameters in the URL fragment (after #).
	// The fragment is never sent to the client's server, only to its scripts.
	FragmentResponseMode ResponseModeType = "fragment"
)

// CodeMethodType is the PKCE challenge method carried on the wire. It maps
// onto pkce.Method; the separate type keeps wire vocabulary in this package.
type CodeMethodType string

const (
	// CodeMethodTypeS256 - code_challenge = BASE64URL(SHA256(code_verifier)).
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain - code_challenge = code_verifier. Accepted for
	// compatibility only; S256 is what well-behaved clients send.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// PKCEMethod converts the wire value to the pkce package's method type.
func (m CodeMethodType) PKCEMethod() pkce.Method {
	return pkce.Method(m)
}

// GrantType represents the OAuth 2.0 grant presented at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges a single-use authorization code
	// (plus PKCE verifier) for tokens.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsGrant is machine-to-machine: client_id + client_secret,
	// no user context, access token only.
	ClientCredentialsGrant GrantType = "client_credentials"
)

// SplitScopes breaks a space-separated scope string into its tokens,
// dropping empties.
func SplitScopes(scope string) []string {
	return strings.Fields(scope)
}

// JoinScopes is the inverse of SplitScopes.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
