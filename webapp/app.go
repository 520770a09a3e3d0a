// Package webapp is the relying party: a browser-facing web client that
// signs users in against the identity provider and calls the weather API
// with the obtained access token.
package webapp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"weatherid/internal/httpserver"
	"weatherid/webapp/flowrepo"
	"weatherid/webapp/sessionrepo"
)

const (
	sessionCookieName  = "weatherweb_session"
	defaultHTTPTimeout = 10 * time.Second
)

// Config wires the relying party to its identity provider and API.
type Config struct {
	BaseURL       string
	IssuerURL     string
	ClientID      string
	ClientSecret  string
	Scopes        []string
	WeatherAPIURL string
	HTTPTimeout   time.Duration
}

// App is the relying party's HTTP surface.
type App struct {
	cfg        Config
	oauthCfg   *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	flows      flowrepo.Repo
	sessions   sessionrepo.Repo
	httpClient *http.Client
	logger     zerolog.Logger
	handler    http.Handler
	nowFunc    func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithNowFunc overrides the clock used for session expiry checks.
func WithNowFunc(now func() time.Time) Option {
	return func(a *App) { a.nowFunc = now }
}

// New discovers the identity provider and builds the relying party. The
// context bounds the discovery fetch.
func New(ctx context.Context, cfg Config, flows flowrepo.Repo, sessions sessionrepo.Repo, logger zerolog.Logger, opts ...Option) (*App, error) {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "webapp.New provider discovery")
	}

	a := &App{
		cfg: cfg,
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.BaseURL + "/auth/callback",
			Scopes:       cfg.Scopes,
		},
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		flows:      flows,
		sessions:   sessions,
		httpClient: httpClient,
		logger:     logger,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleIndex)
	mux.HandleFunc("GET /weather", a.handleWeather)
	mux.HandleFunc("GET /auth/callback", a.handleCallback)
	mux.HandleFunc("POST /auth/logout", a.handleLogout)

	a.handler = httpserver.ChainMiddleware(mux,
		httpserver.Recover(logger),
		httpserver.RequestLogging(logger),
	)
	return a, nil
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// sessionFromRequest resolves the session cookie, returning nil when there
// is no usable session.
func (a *App) sessionFromRequest(r *http.Request) *sessionrepo.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	session, err := a.sessions.Load(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

func (a *App) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *App) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "webapp.randomToken rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
