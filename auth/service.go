// Package auth drives the authorization code grant: request validation,
// resource-owner login, code issuance and the token-endpoint exchange.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"weatherid/auth/codes"
	"weatherid/clients"
	"weatherid/oauth2"
	"weatherid/pkce"
	"weatherid/token"
	"weatherid/users"
)

const defaultCodeTTL = 5 * time.Minute

// Repos collects the stores the service depends on.
type Repos struct {
	Clients clients.Repo
	Users   users.Repo
	Codes   codes.Repo
}

// Service is the authorization engine behind the HTTP endpoints.
type Service struct {
	repos          Repos
	tokens         *token.Manager
	codeTTL        time.Duration
	nowFunc        func() time.Time
	scopeAudiences map[string]string
}

// Option configures a Service.
type Option func(*Service)

// WithNowFunc overrides the clock used for code expiry.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// WithCodeTTL sets the authorization code lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) { s.codeTTL = ttl }
}

// WithScopeAudience registers the API audience a scope grants access to.
// Access tokens carry the audiences of their granted scopes.
func WithScopeAudience(scope, audience string) Option {
	return func(s *Service) { s.scopeAudiences[scope] = audience }
}

func NewService(repos Repos, tokens *token.Manager, opts ...Option) *Service {
	s := &Service{
		repos:          repos,
		tokens:         tokens,
		codeTTL:        defaultCodeTTL,
		nowFunc:        time.Now,
		scopeAudiences: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeResult is a validated authorization request, ready for login
// and code issuance.
type AuthorizeResult struct {
	Client        *clients.Client
	GrantedScopes []string
	Params        oauth2.AuthorizationParameters
}

// ValidateAuthorization checks an authorization request against the client
// registration. Failures before the redirect URI is verified come back
// non-redirectable.
func (s *Service) ValidateAuthorization(ctx context.Context, params oauth2.AuthorizationParameters) (*AuthorizeResult, *AuthorizeError) {
	if params.ClientID == "" || params.RedirectURI == "" {
		return nil, &AuthorizeError{Err: oauth2.NewError(oauth2.ErrInvalidRequest, "client_id and redirect_uri are required")}
	}

	client, err := s.repos.Clients.FindByID(ctx, params.ClientID)
	if err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			return nil, &AuthorizeError{Err: oauth2.NewError(oauth2.ErrInvalidClient, "unknown client %q", params.ClientID)}
		}
		return nil, &AuthorizeError{Err: errors.Wrap(err, "auth.ValidateAuthorization client lookup")}
	}
	if !client.AllowsRedirectURI(params.RedirectURI) {
		return nil, &AuthorizeError{Err: oauth2.NewError(oauth2.ErrInvalidRequest, "redirect_uri is not registered for this client")}
	}

	// From here the redirect URI is trusted, so errors go back to the client.
	if protoErr := params.Validate(); protoErr != nil {
		return nil, &AuthorizeError{Err: protoErr, Redirectable: true}
	}
	if !client.AllowsGrant(oauth2.AuthorizationCodeGrant) {
		return nil, &AuthorizeError{
			Err:          oauth2.NewError(oauth2.ErrUnauthorizedClient, "client is not allowed the authorization_code grant"),
			Redirectable: true,
		}
	}

	granted := client.AllowedScopes(params.Scopes())
	if len(granted) == 0 {
		return nil, &AuthorizeError{
			Err:          oauth2.NewError(oauth2.ErrInvalidScope, "no requested scope is registered for this client"),
			Redirectable: true,
		}
	}

	if client.RequirePKCE || client.IsPublic() {
		if params.CodeChallenge == "" {
			return nil, &AuthorizeError{
				Err:          oauth2.NewError(oauth2.ErrInvalidRequest, "code_challenge is required for this client"),
				Redirectable: true,
			}
		}
	}
	if params.CodeChallenge != "" && !pkce.ValidMethod(params.CodeChallengeMethod.PKCEMethod()) {
		return nil, &AuthorizeError{
			Err:          oauth2.NewError(oauth2.ErrInvalidRequest, "code_challenge_method %q is not supported", params.CodeChallengeMethod),
			Redirectable: true,
		}
	}

	return &AuthorizeResult{Client: client, GrantedScopes: granted, Params: params}, nil
}

// Login authenticates a resource owner. The error never says whether the
// user exists.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, errors.Wrap(err, "auth.Login user lookup")
	}
	if !user.CheckPassword(password) {
		return nil, ErrAuthenticationFailed
	}
	return user, nil
}

// IssueCode mints a single-use authorization code for an authenticated
// user, binding it to the validated request.
func (s *Service) IssueCode(ctx context.Context, result *AuthorizeResult, user *users.User) (string, error) {
	value, err := codes.GenerateValue()
	if err != nil {
		return "", err
	}
	now := s.nowFunc()
	code := &codes.AuthorizationCode{
		Code:                value,
		ClientID:            result.Client.ID,
		Subject:             user.ID,
		Email:               user.Email,
		Name:                user.Name,
		RedirectURI:         result.Params.RedirectURI,
		Scopes:              result.GrantedScopes,
		Nonce:               result.Params.Nonce,
		CodeChallenge:       result.Params.CodeChallenge,
		CodeChallengeMethod: result.Params.CodeChallengeMethod,
		IssuedAt:            now,
		ExpiresAt:           now.Add(s.codeTTL),
	}
	if err := s.repos.Codes.Save(ctx, code); err != nil {
		return "", errors.Wrap(err, "auth.IssueCode save")
	}
	return value, nil
}

// Exchange handles the token endpoint. The returned *oauth2.Error is the
// wire response body; internal failures surface as server_error.
func (s *Service) Exchange(ctx context.Context, req oauth2.TokenRequest) (*oauth2.TokenResponse, *oauth2.Error) {
	client, protoErr := s.authenticateClient(ctx, req)
	if protoErr != nil {
		return nil, protoErr
	}
	if !client.AllowsGrant(req.GrantType) {
		return nil, oauth2.NewError(oauth2.ErrUnauthorizedClient, "client is not allowed the %s grant", req.GrantType)
	}

	switch req.GrantType {
	case oauth2.AuthorizationCodeGrant:
		return s.exchangeAuthorizationCode(ctx, client, req)
	case oauth2.ClientCredentialsGrant:
		return s.exchangeClientCredentials(client, req)
	default:
		return nil, oauth2.NewError(oauth2.ErrUnsupportedGrantType, "grant_type %q is not supported", req.GrantType)
	}
}

func (s *Service) authenticateClient(ctx context.Context, req oauth2.TokenRequest) (*clients.Client, *oauth2.Error) {
	if req.ClientID == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidClient, "client_id is required")
	}
	client, err := s.repos.Clients.FindByID(ctx, req.ClientID)
	if err != nil {
		// Unknown client and bad secret are indistinguishable on the wire.
		return nil, oauth2.NewError(oauth2.ErrInvalidClient, "client authentication failed")
	}
	if !client.IsPublic() && !client.CheckSecret(req.ClientSecret) {
		return nil, oauth2.NewError(oauth2.ErrInvalidClient, "client authentication failed")
	}
	return client, nil
}

func (s *Service) exchangeAuthorizationCode(ctx context.Context, client *clients.Client, req oauth2.TokenRequest) (*oauth2.TokenResponse, *oauth2.Error) {
	if req.Code == "" {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, "code is required")
	}

	code, err := s.repos.Codes.Consume(ctx, req.Code)
	if err != nil {
		if errors.Is(err, codes.ErrCodeNotFound) || errors.Is(err, codes.ErrCodeConsumed) {
			return nil, oauth2.NewError(oauth2.ErrInvalidGrant, "authorization code is invalid or already used")
		}
		return nil, oauth2.NewError(oauth2.ErrServerError, "code store unavailable")
	}
	if code.Expired(s.nowFunc()) {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, "authorization code expired")
	}
	if code.ClientID != client.ID {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, "authorization code was issued to a different client")
	}
	if code.RedirectURI != req.RedirectURI {
		return nil, oauth2.NewError(oauth2.ErrInvalidGrant, "redirect_uri does not match the authorization request")
	}
	if code.CodeChallenge != "" {
		if !pkce.ValidVerifier(req.CodeVerifier) ||
			!pkce.VerifyChallenge(req.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod.PKCEMethod()) {
			return nil, oauth2.NewError(oauth2.ErrInvalidGrant, "code_verifier does not match the code_challenge")
		}
	}

	identity := token.Identity{Subject: code.Subject, Email: code.Email, Name: code.Name}
	accessToken, expiresIn, signErr := s.tokens.IssueAccessToken(identity, client.ID, s.audiencesFor(code.Scopes), code.Scopes)
	if signErr != nil {
		return nil, oauth2.NewError(oauth2.ErrServerError, "failed to sign access token")
	}

	response := &oauth2.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Scope:       oauth2.JoinScopes(code.Scopes),
	}
	if hasScope(code.Scopes, "openid") {
		idToken, signErr := s.tokens.IssueIDToken(identity, client.ID, code.Nonce)
		if signErr != nil {
			return nil, oauth2.NewError(oauth2.ErrServerError, "failed to sign id token")
		}
		response.IDToken = idToken
	}
	return response, nil
}

func (s *Service) exchangeClientCredentials(client *clients.Client, req oauth2.TokenRequest) (*oauth2.TokenResponse, *oauth2.Error) {
	if client.IsPublic() {
		return nil, oauth2.NewError(oauth2.ErrUnauthorizedClient, "public clients cannot use client_credentials")
	}
	scopes := client.AllowedScopes(oauth2.SplitScopes(req.Scope))
	if req.Scope == "" {
		scopes = client.Scopes
	}
	if len(scopes) == 0 {
		return nil, oauth2.NewError(oauth2.ErrInvalidScope, "no requested scope is registered for this client")
	}

	identity := token.Identity{Subject: client.ID}
	accessToken, expiresIn, err := s.tokens.IssueAccessToken(identity, client.ID, s.audiencesFor(scopes), scopes)
	if err != nil {
		return nil, oauth2.NewError(oauth2.ErrServerError, "failed to sign access token")
	}
	return &oauth2.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Scope:       oauth2.JoinScopes(scopes),
	}, nil
}

func (s *Service) audiencesFor(scopes []string) []string {
	var audiences []string
	for _, scope := range scopes {
		audience, ok := s.scopeAudiences[scope]
		if !ok {
			continue
		}
		if !hasScope(audiences, audience) {
			audiences = append(audiences, audience)
		}
	}
	return audiences
}

func hasScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}
