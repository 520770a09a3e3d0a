// Package server is the identity provider's HTTP surface: authorization,
// login, token, discovery and jwks endpoints.
package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"weatherid/auth"
	"weatherid/internal/httpserver"
	"weatherid/token"
)

// Config carries the server's published identity.
type Config struct {
	Issuer          string
	ScopesSupported []string
}

// Server routes the identity provider endpoints. It implements
// http.Handler so tests can mount it on httptest servers.
type Server struct {
	cfg     Config
	service *auth.Service
	keys    token.JWKS
	logger  zerolog.Logger
	handler http.Handler
}

func New(cfg Config, service *auth.Service, keys token.JWKS, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		keys:    keys,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth2/authorize", s.handleAuthorize)
	mux.HandleFunc("GET /auth/login", s.handleLoginForm)
	mux.HandleFunc("POST /auth/login", s.handleLoginSubmit)
	mux.HandleFunc("POST /oauth2/token", s.handleToken)
	mux.HandleFunc("GET /.well-known/openid-configuration", s.handleDiscovery)
	mux.HandleFunc("GET /.well-known/jwks.json", s.handleJWKS)

	s.handler = httpserver.ChainMiddleware(mux,
		httpserver.Recover(logger),
		httpserver.RequestLogging(logger),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
