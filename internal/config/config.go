// Package config loads service configuration from struct defaults, an optional
// YAML file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Token     TokenConfig     `koanf:"token"`
	Security  SecurityConfig  `koanf:"security"`
	Editorial EditorialConfig `koanf:"editorial"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig selects the review corpus store. Driver is "postgres" or "sqlite";
// for sqlite the DSN is a file path or ":memory:".
type DatabaseConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=postgres sqlite"`
	DSN          string        `koanf:"dsn" validate:"required"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

type CatalogConfig struct {
	BaseURL          string        `koanf:"base_url" validate:"required,url"`
	TokenURL         string        `koanf:"token_url" validate:"required,url"`
	ClientID         string        `koanf:"client_id"`
	ClientSecret     string        `koanf:"client_secret"`
	Timeout          time.Duration `koanf:"timeout"`
	RequestsPerSec   float64       `koanf:"requests_per_sec" validate:"gt=0"`
	Burst            int           `koanf:"burst" validate:"gte=1"`
	BreakerFailRatio float64       `koanf:"breaker_fail_ratio" validate:"gt=0,lte=1"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
	DefaultMarket    string        `koanf:"default_market"`
}

// RecommendConfig tunes the selection engine. Pool caps are empirical; zero
// keeps the built-in value.
type RecommendConfig struct {
	MaxAttempts         int           `koanf:"max_attempts" validate:"gte=1"`
	InitialBackoff      time.Duration `koanf:"initial_backoff"`
	MaxBackoff          time.Duration `koanf:"max_backoff"`
	BackoffJitter       float64       `koanf:"backoff_jitter" validate:"gte=0,lt=1"`
	RateLimitFloor      time.Duration `koanf:"rate_limit_floor"`
	ProbeSize           int           `koanf:"probe_size" validate:"gte=1,lte=50"`
	PoolCapBroad        int           `koanf:"pool_cap_broad" validate:"gte=0"`
	PoolCapLabel        int           `koanf:"pool_cap_label" validate:"gte=0"`
	PoolCapGenreArtists int           `koanf:"pool_cap_genre_artists" validate:"gte=0"`
}

type TokenConfig struct {
	Secret     string        `koanf:"secret" validate:"required,min=16"`
	TTL        time.Duration `koanf:"ttl"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
	Secure     bool          `koanf:"secure"`
}

type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	EnableHSTS      bool          `koanf:"enable_hsts"`
}

// EditorialConfig maps a feed slug to its RSS/Atom URL.
type EditorialConfig struct {
	Feeds map[string]string `koanf:"feeds"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Recommend.MaxBackoff > 0 && c.Recommend.InitialBackoff > c.Recommend.MaxBackoff {
		return errors.New("invalid configuration: recommend.initial_backoff exceeds recommend.max_backoff")
	}
	return nil
}
