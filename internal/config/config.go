// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinTokenSecretLength is the minimum required length for the token signing
// secret. HMAC-SHA256 keys shorter than the hash size weaken the signature.
const MinTokenSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath      string `env:"FOLIO_DB_PATH" envDefault:"./data/folio.db"`
	TokenSecret string `env:"FOLIO_TOKEN_SECRET,required"`
	ServerHost  string `env:"FOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int    `env:"FOLIO_SERVER_PORT" envDefault:"8080"`
	Env         string `env:"FOLIO_ENV" envDefault:"development"`
	LogLevel    string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"FOLIO_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"FOLIO_CACHE_PREFIX" envDefault:"folio:"`  // Redis key prefix
	CacheTTL     int    `env:"FOLIO_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"FOLIO_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Object storage configuration (S3-compatible) for project images
	StorageBucket    string `env:"FOLIO_STORAGE_BUCKET"`
	StorageRegion    string `env:"FOLIO_STORAGE_REGION" envDefault:"us-east-1"`
	StorageEndpoint  string `env:"FOLIO_STORAGE_ENDPOINT"` // Optional, for non-AWS S3-compatible stores
	StorageAccessKey string `env:"FOLIO_STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"FOLIO_STORAGE_SECRET_KEY"`
	StoragePublicURL string `env:"FOLIO_STORAGE_PUBLIC_URL"` // Base URL for serving uploaded objects

	// Orphan sweeper schedule (cron expression). Empty disables the sweeper.
	SweepSchedule string `env:"FOLIO_SWEEP_SCHEDULE" envDefault:"@every 1h"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// StorageEnabled returns true if the object storage credential triple is
// configured. Image operations fail with a storage error when it is not.
func (c Config) StorageEnabled() bool {
	return c.StorageBucket != "" && c.StorageAccessKey != "" && c.StorageSecretKey != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := checkTokenSecret(cfg.TokenSecret); err != nil {
		return nil, err
	}
	if !cfg.StorageEnabled() {
		slog.Warn("object storage not configured; project image uploads will be rejected")
	}
	return cfg, nil
}

const secretHint = "generate a secure secret with: openssl rand -base64 32"

// checkTokenSecret rejects short or placeholder signing secrets at startup
// instead of serving traffic with a guessable key.
func checkTokenSecret(secret string) error {
	if len(secret) < MinTokenSecretLength {
		return fmt.Errorf("FOLIO_TOKEN_SECRET must be at least %d bytes, got %d; %s",
			MinTokenSecretLength, len(secret), secretHint)
	}
	for _, weak := range knownWeakSecrets {
		if secret == weak {
			return fmt.Errorf("FOLIO_TOKEN_SECRET is a known placeholder value; %s", secretHint)
		}
	}
	if characterClasses(secret) < 3 {
		slog.Warn("FOLIO_TOKEN_SECRET has low character diversity; " + secretHint)
	}
	return nil
}

// characterClasses counts how many of lowercase, uppercase, digit, and
// punctuation appear in s.
func characterClasses(s string) int {
	n := 0
	for _, set := range []string{
		"abcdefghijklmnopqrstuvwxyz",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"0123456789",
		"!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\",
	} {
		if strings.ContainsAny(s, set) {
			n++
		}
	}
	return n
}
