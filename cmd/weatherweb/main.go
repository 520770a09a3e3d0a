package main

import (
	"context"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/buntdb"

	"weatherid/internal/config"
	"weatherid/internal/httpserver"
	"weatherid/webapp"
	"weatherid/webapp/flowrepo"
	"weatherid/webapp/sessionrepo"
)

const discoveryTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	figure.NewFigure("weatherweb", "", true).Print()

	cfg, err := config.Load(os.Getenv("WEATHERID_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("weatherweb exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	var sessions sessionrepo.Repo = sessionrepo.NewMemoryRepo()
	if cfg.WebApp.DatabaseFile != "" {
		db, err := buntdb.Open(cfg.WebApp.DatabaseFile)
		if err != nil {
			return errors.Wrap(err, "open session database")
		}
		defer db.Close()
		sessions = sessionrepo.NewBuntRepo(db)
	}

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()
	app, err := webapp.New(ctx, webapp.Config{
		BaseURL:       cfg.WebApp.BaseURL,
		IssuerURL:     cfg.IDServer.Issuer,
		ClientID:      cfg.WebApp.ClientID,
		ClientSecret:  cfg.WebApp.ClientSecret,
		Scopes:        cfg.WebApp.Scopes,
		WeatherAPIURL: cfg.WebApp.APIURL,
	}, flowrepo.NewMemoryRepo(), sessions, logger)
	if err != nil {
		return err
	}

	return httpserver.Run(cfg.WebApp.Addr, app, logger)
}
