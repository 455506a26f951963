// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Events      EventsConfig      `koanf:"events"`
	Experiment  ExperimentConfig  `koanf:"experiment"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Session     SessionConfig     `koanf:"session"`
	Security    SecurityConfig    `koanf:"security"`
	Analytics   AnalyticsConfig   `koanf:"analytics"`
	DeadLetter  DeadLetterConfig  `koanf:"deadletter"`
	Breaker     BreakerConfig     `koanf:"breaker"`
	Performance PerformanceConfig `koanf:"performance"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development or production
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EventsConfig configures the ingestion queue, worker, and CSV logs.
type EventsConfig struct {
	LogDir           string        `koanf:"log_dir"`
	QueueCapacity    int           `koanf:"queue_capacity"`
	DequeueTimeout   time.Duration `koanf:"dequeue_timeout"`
	ShutdownDeadline time.Duration `koanf:"shutdown_deadline"`
	DropLogInterval  time.Duration `koanf:"drop_log_interval"`
}

// ExperimentConfig selects the variant assignment hash.
type ExperimentConfig struct {
	// Hash is md5 (even/odd digest, compatible with historical logs) or murmur3.
	Hash string `koanf:"hash"`
	Salt string `koanf:"salt"`
}

// RecommendConfig configures the mock recommenders.
type RecommendConfig struct {
	Count       int    `koanf:"count"`
	CatalogPath string `koanf:"catalog_path"`
	Seed        int64  `koanf:"seed"` // 0 seeds from the clock
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Secret     string        `koanf:"secret"`
	TTL        time.Duration `koanf:"ttl"`
	CookieName string        `koanf:"cookie_name"`
	Secure     bool          `koanf:"secure"`
}

// SecurityConfig holds CORS, rate limiting and admin credentials.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPasswordHash string        `koanf:"admin_password_hash"` // bcrypt
}

// AnalyticsConfig selects how metrics are computed from the event logs.
type AnalyticsConfig struct {
	Engine      string        `koanf:"engine"` // csv or duckdb
	RecentLimit int           `koanf:"recent_limit"`
	CacheTTL    time.Duration `koanf:"cache_ttl"` // 0 disables result caching
}

// DeadLetterConfig configures the badger store for events whose persist failed.
type DeadLetterConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// BreakerConfig configures the circuit breaker around event persistence.
type BreakerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxFailures uint32        `koanf:"max_failures"`
	Timeout     time.Duration `koanf:"timeout"`
}

// PerformanceConfig configures request latency tracking.
type PerformanceConfig struct {
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// AdminEnabled reports whether admin endpoints have credentials configured.
func (c *Config) AdminEnabled() bool {
	return c.Security.AdminUsername != "" && c.Security.AdminPasswordHash != ""
}
