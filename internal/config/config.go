// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the API server needs to start. Values come from
// ELINA_* environment variables.
type Config struct {
	Addr    string `envconfig:"ADDR" default:":8080"`
	Version string `envconfig:"VERSION" default:"dev"`

	PGDSN string `envconfig:"PG_DSN" required:"true"`

	AuthSecret string        `envconfig:"AUTH_SECRET" required:"true"`
	AuthIssuer string        `envconfig:"AUTH_ISSUER" default:"elina"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TTL" default:"15m"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TTL" default:"336h"`

	RateRPS   float64 `envconfig:"RATE_RPS" default:"50"`
	RateBurst int     `envconfig:"RATE_BURST" default:"100"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads the ELINA_* environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("elina", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
