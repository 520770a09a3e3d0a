package main

import (
	"context"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"weatherid/internal/config"
	"weatherid/internal/httpserver"
	"weatherid/token"
	"weatherid/weatherapi"
)

const jwksFetchTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	figure.NewFigure("weatherapi", "", true).Print()

	cfg, err := config.Load(os.Getenv("WEATHERID_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("weatherapi exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), jwksFetchTimeout)
	defer cancel()
	keys, err := token.FetchJWKS(ctx, nil, cfg.WeatherAPI.Issuer)
	if err != nil {
		return err
	}
	logger.Info().Int("keys", len(keys.Keys)).Str("issuer", cfg.WeatherAPI.Issuer).Msg("fetched signing keys")

	validator := token.NewJWKSValidator(cfg.WeatherAPI.Issuer, keys, token.WithLeeway(time.Minute))
	api := weatherapi.New(weatherapi.Config{
		Audience:      cfg.WeatherAPI.Audience,
		RequiredScope: cfg.WeatherAPI.RequiredScope,
	}, validator, logger)

	return httpserver.Run(cfg.WeatherAPI.Addr, api, logger)
}
