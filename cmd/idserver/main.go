package main

import (
	"context"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/buntdb"

	"weatherid/auth"
	"weatherid/auth/codes"
	"weatherid/clients"
	clientfake "weatherid/clients/repofake"
	"weatherid/internal/config"
	"weatherid/internal/httpserver"
	"weatherid/oauth2"
	"weatherid/server"
	"weatherid/token"
	"weatherid/users"
	userfake "weatherid/users/repofake"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	figure.NewFigure("weatherid", "", true).Print()

	cfg, err := config.Load(os.Getenv("WEATHERID_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("idserver exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	keyPair, err := loadOrGenerateKey(cfg.IDServer.SigningKeyFile)
	if err != nil {
		return err
	}
	signer := token.NewKeyPairSigner(keyPair)
	manager := token.NewManager(cfg.IDServer.Issuer, signer)

	var codeRepo codes.Repo = codes.NewMemoryRepo()
	if cfg.IDServer.DatabaseFile != "" {
		db, err := buntdb.Open(cfg.IDServer.DatabaseFile)
		if err != nil {
			return errors.Wrap(err, "open code database")
		}
		defer db.Close()
		codeRepo = codes.NewBuntRepo(db)
	}

	clientRepo := clientfake.New()
	userRepo := userfake.New()
	if err := seed(context.Background(), cfg, clientRepo, userRepo); err != nil {
		return err
	}

	service := auth.NewService(
		auth.Repos{Clients: clientRepo, Users: userRepo, Codes: codeRepo},
		manager,
		auth.WithScopeAudience(cfg.WeatherAPI.RequiredScope, cfg.WeatherAPI.Audience),
	)
	idp := server.New(server.Config{
		Issuer:          cfg.IDServer.Issuer,
		ScopesSupported: cfg.WebApp.Scopes,
	}, service, signer.JWKS(), logger)

	return httpserver.Run(cfg.IDServer.Addr, idp, logger)
}

func loadOrGenerateKey(path string) (*token.KeyPair, error) {
	if path == "" {
		return token.GenerateRSAKeyPair()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read signing key %s", path)
	}
	return token.LoadPrivateKeyPEM(data, "primary")
}

// seed registers the demo client and user the way a provisioning step
// would in a real deployment.
func seed(ctx context.Context, cfg *config.Config, clientRepo clients.Repo, userRepo users.Repo) error {
	secretHash, err := clients.HashSecret(cfg.WebApp.ClientSecret)
	if err != nil {
		return err
	}
	registeredScopes := append([]string{}, cfg.WebApp.Scopes...)
	if err := clientRepo.Save(ctx, &clients.Client{
		ID:           cfg.WebApp.ClientID,
		Name:         "Weather Web",
		Type:         clients.Confidential,
		SecretHash:   secretHash,
		RedirectURIs: []string{cfg.WebApp.BaseURL + "/auth/callback"},
		Scopes:       registeredScopes,
		GrantTypes:   []oauth2.GrantType{oauth2.AuthorizationCodeGrant},
		RequirePKCE:  true,
	}); err != nil {
		return errors.Wrap(err, "seed client")
	}

	passwordHash, err := users.HashPassword("alice")
	if err != nil {
		return err
	}
	if err := userRepo.Save(ctx, &users.User{
		ID:           "user-alice",
		Email:        "alice@example.com",
		Name:         "Alice Smith",
		PasswordHash: passwordHash,
	}); err != nil {
		return errors.Wrap(err, "seed user")
	}
	return nil
}
