// Package config loads the shared configuration for all three binaries:
// defaults, an optional YAML file, then WEATHERID_ environment variables,
// each layer overriding the previous.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "WEATHERID_"

// Config is the full configuration tree. One file serves all binaries;
// each reads its own section.
type Config struct {
	IDServer   IDServer   `koanf:"idserver"`
	WebApp     WebApp     `koanf:"webapp"`
	WeatherAPI WeatherAPI `koanf:"weatherapi"`
}

// IDServer configures the identity provider.
type IDServer struct {
	Addr           string `koanf:"addr"`
	Issuer         string `koanf:"issuer"`
	SigningKeyFile string `koanf:"signing_key_file"`
	DatabaseFile   string `koanf:"database_file"`
}

// WebApp configures the relying party. The identity provider also reads
// this section to seed the client registration.
type WebApp struct {
	Addr         string   `koanf:"addr"`
	BaseURL      string   `koanf:"base_url"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Scopes       []string `koanf:"scopes"`
	APIURL       string   `koanf:"api_url"`
	DatabaseFile string   `koanf:"database_file"`
}

// WeatherAPI configures the protected resource server.
type WeatherAPI struct {
	Addr          string `koanf:"addr"`
	Issuer        string `koanf:"issuer"`
	Audience      string `koanf:"audience"`
	RequiredScope string `koanf:"required_scope"`
}

// Default is the local development arrangement: everything on localhost.
func Default() *Config {
	return &Config{
		IDServer: IDServer{
			Addr:   ":5001",
			Issuer: "http://localhost:5001",
		},
		WebApp: WebApp{
			Addr:         ":5444",
			BaseURL:      "http://localhost:5444",
			ClientID:     "weathermvc",
			ClientSecret: "weathermvc-secret",
			Scopes:       []string{"openid", "profile", "weatherapi.read"},
			APIURL:       "http://localhost:6001",
		},
		WeatherAPI: WeatherAPI{
			Addr:          ":6001",
			Issuer:        "http://localhost:5001",
			Audience:      "weatherapi",
			RequiredScope: "weatherapi.read",
		},
	}
}

// Load reads configuration with path optional. Environment variables use
// double underscores for nesting: WEATHERID_IDSERVER__ADDR=:9001.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config.Load file %s", path)
		}
	}
	err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "config.Load env")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "config.Load unmarshal")
	}
	return cfg, nil
}
