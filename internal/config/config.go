// Package config loads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable the process reads at start. Values are treated
// as immutable for the process lifetime.
type Config struct {
	Addr string `env:"AUTH_ADDR" envDefault:":3000"`

	// Backend selection: Postgres holds users when DSN is set; Redis holds
	// the ephemeral stores when RedisAddr is set. Unset falls back to the
	// in-memory stores.
	PostgresDSN string `env:"AUTH_POSTGRES_DSN"`
	RedisAddr   string `env:"AUTH_REDIS_ADDR"`

	JWTSecret string `env:"AUTH_JWT_SECRET"`

	AuthTokenTTL   time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"10m"`
	ResetTokenTTL  time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"15m"`
	TwoFACodeTTL   time.Duration `env:"AUTH_TWO_FA_CODE_TTL" envDefault:"10m"`
	TwoFALockWait  time.Duration `env:"AUTH_TWO_FA_LOCK_TIMEOUT" envDefault:"5s"`

	ArgonMemoryKiB uint32 `env:"AUTH_ARGON_MEMORY_KIB" envDefault:"15000"`
	ArgonTime      uint32 `env:"AUTH_ARGON_TIME" envDefault:"2"`
	ArgonParallel  uint8  `env:"AUTH_ARGON_PARALLELISM" envDefault:"1"`
	HashWorkers    int    `env:"AUTH_HASH_WORKERS" envDefault:"0"`

	PostmarkBaseURL string        `env:"AUTH_POSTMARK_BASE_URL" envDefault:"https://api.postmarkapp.com"`
	PostmarkToken   string        `env:"AUTH_POSTMARK_TOKEN"`
	PostmarkSender  string        `env:"AUTH_POSTMARK_SENDER"`
	PostmarkTimeout time.Duration `env:"AUTH_POSTMARK_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment and validates required values.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	return &cfg, nil
}
