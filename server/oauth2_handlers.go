package server

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"weatherid/auth"
	"weatherid/internal/httpserver"
	"weatherid/oauth2"
)

// handleAuthorize validates the authorization request and sends the user
// to the login page carrying the original query. The code is minted only
// after a successful login.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	params := oauth2.ParseAuthorizationParameters(r.URL.Query())
	if _, authErr := s.service.ValidateAuthorization(r.Context(), params); authErr != nil {
		s.writeAuthorizeError(w, r, params, authErr)
		return
	}
	http.Redirect(w, r, "/auth/login?"+r.URL.RawQuery, http.StatusFound)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeTokenError(w, oauth2.NewError(oauth2.ErrInvalidRequest, "malformed form body"))
		return
	}
	req := oauth2.ParseTokenRequest(r.PostForm)
	if id, secret, ok := r.BasicAuth(); ok {
		// RFC 6749 §2.3.1: basic-auth credentials are form-urlencoded.
		if unescaped, err := url.QueryUnescape(id); err == nil {
			id = unescaped
		}
		if unescaped, err := url.QueryUnescape(secret); err == nil {
			secret = unescaped
		}
		req.ClientID, req.ClientSecret = id, secret
	}

	response, protoErr := s.service.Exchange(r.Context(), req)
	if protoErr != nil {
		s.writeTokenError(w, protoErr)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpserver.WriteJSON(w, http.StatusOK, response)
}

func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, s.keys)
}

type discoveryDocument struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	JWKSURI                       string   `json:"jwks_uri"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	ResponseModesSupported        []string `json:"response_modes_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	ScopesSupported               []string `json:"scopes_supported"`
	SubjectTypesSupported         []string `json:"subject_types_supported"`
	IDTokenSigningAlgValues       []string `json:"id_token_signing_alg_values_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethods      []string `json:"token_endpoint_auth_methods_supported"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, discoveryDocument{
		Issuer:                        s.cfg.Issuer,
		AuthorizationEndpoint:         s.cfg.Issuer + "/oauth2/authorize",
		TokenEndpoint:                 s.cfg.Issuer + "/oauth2/token",
		JWKSURI:                       s.cfg.Issuer + "/.well-known/jwks.json",
		ResponseTypesSupported:        []string{"code"},
		ResponseModesSupported:        []string{"query", "fragment"},
		GrantTypesSupported:           []string{"authorization_code", "client_credentials"},
		ScopesSupported:               s.cfg.ScopesSupported,
		SubjectTypesSupported:         []string{"public"},
		IDTokenSigningAlgValues:       []string{"RS256"},
		CodeChallengeMethodsSupported: []string{"S256", "plain"},
		TokenEndpointAuthMethods:      []string{"client_secret_basic", "client_secret_post"},
	})
}

func (s *Server) writeTokenError(w http.ResponseWriter, protoErr *oauth2.Error) {
	if protoErr.StatusCode() == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
	}
	w.Header().Set("Cache-Control", "no-store")
	httpserver.WriteJSON(w, protoErr.StatusCode(), protoErr)
}

// writeAuthorizeError delivers the error on the client's redirect URI when
// that is safe, otherwise answers the caller directly.
func (s *Server) writeAuthorizeError(w http.ResponseWriter, r *http.Request, params oauth2.AuthorizationParameters, authErr *auth.AuthorizeError) {
	var protoErr *oauth2.Error
	if !errors.As(authErr.Err, &protoErr) {
		s.logger.Error().Err(authErr.Err).Msg("authorize failed")
		protoErr = oauth2.NewError(oauth2.ErrServerError, "internal error")
	}

	if authErr.Redirectable {
		s.callbackRedirect(w, r, params.RedirectURI, params.ResponseMode, protoErr.RedirectParams(params.State))
		return
	}
	httpserver.WriteJSON(w, protoErr.StatusCode(), protoErr)
}

// callbackRedirect sends the response parameters to the client's redirect
// URI in the requested response mode.
func (s *Server) callbackRedirect(w http.ResponseWriter, r *http.Request, redirectURI string, mode oauth2.ResponseModeType, values url.Values) {
	target, err := url.Parse(redirectURI)
	if err != nil {
		httpserver.WriteJSON(w, http.StatusBadRequest,
			oauth2.NewError(oauth2.ErrInvalidRequest, "redirect_uri is not a valid URI"))
		return
	}
	switch mode {
	case oauth2.FragmentResponseMode:
		target.Fragment = values.Encode()
	default:
		query := target.Query()
		for key, vals := range values {
			for _, v := range vals {
				query.Set(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}
	http.Redirect(w, r, target.String(), http.StatusFound)
}
