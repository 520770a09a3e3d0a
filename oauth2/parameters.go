package oauth2

import "net/url"

// AuthorizationParameters are the query parameters of an authorization
// request, parsed but not yet validated against the client registration.
type AuthorizationParameters struct {
	ClientID            string
	RedirectURI         string
	ResponseType        ResponseType
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod CodeMethodType
	ResponseMode        ResponseModeType
}

// ParseAuthorizationParameters extracts the authorization request from a
// query string. Absent code_challenge_method defaults to plain per RFC 7636
// §4.3; absent response_mode defaults to query.
func ParseAuthorizationParameters(query url.Values) AuthorizationParameters {
	params := AuthorizationParameters{
		ClientID:            query.Get("client_id"),
		RedirectURI:         query.Get("redirect_uri"),
		ResponseType:        ResponseType(query.Get("response_type")),
		Scope:               query.Get("scope"),
		State:               query.Get("state"),
		Nonce:               query.Get("nonce"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: CodeMethodType(query.Get("code_challenge_method")),
		ResponseMode:        ResponseModeType(query.Get("response_mode")),
	}
	if params.CodeChallengeMethod == "" && params.CodeChallenge != "" {
		params.CodeChallengeMethod = CodeMethodTypePlain
	}
	if params.ResponseMode == "" {
		params.ResponseMode = QueryResponseMode
	}
	return params
}

// Scopes returns the requested scopes as a slice.
func (p AuthorizationParameters) Scopes() []string {
	return SplitScopes(p.Scope)
}

// Validate checks the request shape before any client lookup. Errors here
// are invalid_request or unsupported_response_type; anything involving the
// registration is the authorization service's job.
func (p AuthorizationParameters) Validate() *Error {
	if p.ClientID == "" {
		return NewError(ErrInvalidRequest, "client_id is required")
	}
	if p.RedirectURI == "" {
		return NewError(ErrInvalidRequest, "redirect_uri is required")
	}
	if _, err := url.ParseRequestURI(p.RedirectURI); err != nil {
		return NewError(ErrInvalidRequest, "redirect_uri is not a valid URI")
	}
	if p.ResponseType != CodeResponseType {
		return NewError(ErrUnsupportedResponseType, "response_type %q is not supported", p.ResponseType)
	}
	if p.ResponseMode != QueryResponseMode && p.ResponseMode != FragmentResponseMode {
		return NewError(ErrInvalidRequest, "response_mode %q is not supported", p.ResponseMode)
	}
	return nil
}
