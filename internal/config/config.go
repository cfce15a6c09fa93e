// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"EVENTDESK_DB_PATH" envDefault:"./data/eventdesk.db"`
	ServerHost string `env:"EVENTDESK_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"EVENTDESK_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"EVENTDESK_ENV" envDefault:"development"`
	LogLevel   string `env:"EVENTDESK_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"EVENTDESK_UPLOADS_DIR" envDefault:"./uploads"`

	// SessionMinutes is how long an admin session stays valid after login.
	// The deadline is enforced both by a deferred timer and lazily on every
	// read of session state.
	SessionMinutes int    `env:"EVENTDESK_SESSION_MINUTES" envDefault:"20"`
	SessionSecret  string `env:"EVENTDESK_SESSION_SECRET,required"`

	// Allow-list cache configuration. When RedisURL is empty the cache is
	// in-process memory.
	RedisURL      string `env:"EVENTDESK_REDIS_URL"`
	CachePrefix   string `env:"EVENTDESK_CACHE_PREFIX" envDefault:"eventdesk:"`
	AllowlistTTL  int    `env:"EVENTDESK_ALLOWLIST_TTL" envDefault:"300"` // seconds
	CacheMaxSize  int    `env:"EVENTDESK_CACHE_MAX_SIZE" envDefault:"1000"`

	// Seeding configuration. When both are set and no account exists yet,
	// an admin account and a matching allow-list entry are created on start.
	AdminEmail    string `env:"EVENTDESK_ADMIN_EMAIL"`
	AdminPassword string `env:"EVENTDESK_ADMIN_PASSWORD"`

	// AuditRetentionDays is how long audit log entries are kept before the
	// scheduled purge removes them.
	AuditRetentionDays int `env:"EVENTDESK_AUDIT_RETENTION_DAYS" envDefault:"90"`
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

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

// SessionDuration returns the configured session lifetime.
func (c Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionMinutes) * time.Minute
}

// AllowlistCacheTTL returns the configured allow-list cache TTL.
func (c Config) AllowlistCacheTTL() time.Duration {
	return time.Duration(c.AllowlistTTL) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("EVENTDESK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	if cfg.SessionMinutes <= 0 {
		return nil, fmt.Errorf("EVENTDESK_SESSION_MINUTES must be positive, got %d", cfg.SessionMinutes)
	}

	return cfg, nil
}
