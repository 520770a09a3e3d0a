package oauth2

import "net/url"

// TokenRequest is the form body of a token endpoint call. Client
// credentials may arrive in the form or via HTTP basic auth; the HTTP
// layer folds both into these fields.
type TokenRequest struct {
	GrantType    GrantType
	Code         string
	RedirectURI  string
	ClientID     string
	ClientSecret string
	CodeVerifier string
	Scope        string
}

// ParseTokenRequest extracts a token request from posted form values.
func ParseTokenRequest(form url.Values) TokenRequest {
	return TokenRequest{
		GrantType:    GrantType(form.Get("grant_type")),
		Code:         form.Get("code"),
		RedirectURI:  form.Get("redirect_uri"),
		ClientID:     form.Get("client_id"),
		ClientSecret: form.Get("client_secret"),
		CodeVerifier: form.Get("code_verifier"),
		Scope:        form.Get("scope"),
	}
}

// TokenResponse is the success body of the token endpoint, RFC 6749 §5.1.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
	IDToken     string `json:"id_token,omitempty"`
}
