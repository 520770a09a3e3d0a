package weatherapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"weatherid/internal/httpserver"
	"weatherid/token"
)

const forecastDays = 5

// Config identifies this resource server to the token validator.
type Config struct {
	Audience      string
	RequiredScope string
}

// Server serves the forecast endpoint behind bearer-token auth.
type Server struct {
	cfg       Config
	validator *token.Validator
	logger    zerolog.Logger
	handler   http.Handler
	nowFunc   func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithNowFunc overrides the clock used for forecast dates.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) { s.nowFunc = now }
}

func New(cfg Config, validator *token.Validator, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		validator: validator,
		logger:    logger,
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /weatherforecast", s.requireBearer(http.HandlerFunc(s.handleForecast)))

	s.handler = httpserver.ChainMiddleware(mux,
		httpserver.Recover(logger),
		httpserver.RequestLogging(logger),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the validated claims requireBearer stored.
func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.AccessClaims)
	return claims, ok
}

// requireBearer validates the Authorization header. Token problems are
// 401; a valid token without the required scope is 403.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			s.unauthorized(w, "missing bearer token")
			return
		}

		claims, err := s.validator.Validate(raw, s.cfg.Audience, s.cfg.RequiredScope)
		if err != nil {
			if errors.Is(err, token.ErrInsufficientScope) {
				w.Header().Set("WWW-Authenticate",
					`Bearer error="insufficient_scope", scope="`+s.cfg.RequiredScope+`"`)
				httpserver.WriteJSON(w, http.StatusForbidden, map[string]string{
					"error": "insufficient_scope",
				})
				return
			}
			s.logger.Debug().Err(err).Msg("token rejected")
			s.unauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	httpserver.WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": description,
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		s.logger.Debug().Str("subject", claims.Subject).Msg("forecast requested")
	}
	httpserver.WriteJSON(w, http.StatusOK, GenerateForecasts(s.nowFunc(), forecastDays))
}
