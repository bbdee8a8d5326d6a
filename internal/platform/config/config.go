// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (catalog client, Redis, sessions) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/geohistory/pkg/query"
)

// # Configuration Schema

// Config holds all runtime configuration for the GeoHistory tour server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Events backend (external collaborator)
	EventsAPIBase    string        `env:"EVENTS_API_BASE"    envDefault:"http://localhost:3001"`
	EventsAPITimeout time.Duration `env:"EVENTS_API_TIMEOUT" envDefault:"10s"`
	EventsAPIRPS     float64       `env:"EVENTS_API_RPS"     envDefault:"20"`

	// Key-Value Cache (Redis). Empty disables response caching.
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Session tokens and lifecycle
	SessionSecret      string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTokenTTL    time.Duration `env:"SESSION_TOKEN_TTL"    envDefault:"12h"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// Explorer behaviour
	FilterDebounce  time.Duration `env:"FILTER_DEBOUNCE"  envDefault:"250ms"`
	TourSpeed       time.Duration `env:"TOUR_SPEED"       envDefault:"2s"`
	TourLoop        bool          `env:"TOUR_LOOP"        envDefault:"true"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE" envDefault:"it"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.DefaultLanguage != "it" && cfg.DefaultLanguage != "en" {
		return nil, fmt.Errorf("config: DEFAULT_LANGUAGE must be \"it\" or \"en\", got %q", cfg.DefaultLanguage)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// AllowsOrigin reports whether a browser origin may call the API in production.
//
// The first-party domain and its subdomains are always allowed over https;
// EXTRA_ORIGINS adds a comma-separated list of exact origins.
func (c *Config) AllowsOrigin(origin string) bool {
	if parsed, err := url.Parse(origin); err == nil && parsed.Scheme == "https" {
		host := strings.ToLower(parsed.Hostname())
		if host == firstPartyDomain || strings.HasSuffix(host, "."+firstPartyDomain) {
			return true
		}
	}
	return slices.Contains(query.StringSlice(c.ExtraOrigins), origin)
}

// firstPartyDomain serves the official renderers.
const firstPartyDomain = "geohistory.app"
