// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultQueueCapacity is the bounded ingestion queue size.
const DefaultQueueCapacity = 10000

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			LogDir:           "data/logs",
			QueueCapacity:    DefaultQueueCapacity,
			DequeueTimeout:   time.Second,
			ShutdownDeadline: 5 * time.Second,
			DropLogInterval:  time.Second,
		},
		Experiment: ExperimentConfig{
			Hash: "md5",
		},
		Recommend: RecommendConfig{
			Count:       12,
			CatalogPath: "data/movies.csv",
		},
		Session: SessionConfig{
			TTL:        24 * time.Hour,
			CookieName: "marquee_session",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Analytics: AnalyticsConfig{
			Engine:      "csv",
			RecentLimit: 5,
			CacheTTL:    2 * time.Second,
		},
		DeadLetter: DeadLetterConfig{
			Enabled: false,
			Path:    "data/deadletter",
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Performance: PerformanceConfig{
			SlowThreshold: 100 * time.Millisecond,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// the environment, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings (env vars).
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":               "server.host",
	"http_port":               "server.port",
	"http_read_timeout":       "server.read_timeout",
	"http_write_timeout":      "server.write_timeout",
	"http_shutdown_timeout":   "server.shutdown_timeout",
	"environment":             "server.environment",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
	"event_log_dir":           "events.log_dir",
	"event_queue_capacity":    "events.queue_capacity",
	"event_dequeue_timeout":   "events.dequeue_timeout",
	"event_shutdown_deadline": "events.shutdown_deadline",
	"event_drop_log_interval": "events.drop_log_interval",
	"experiment_hash":         "experiment.hash",
	"experiment_salt":         "experiment.salt",
	"recommend_count":         "recommend.count",
	"recommend_catalog_path":  "recommend.catalog_path",
	"recommend_seed":          "recommend.seed",
	"session_secret":          "session.secret",
	"session_ttl":             "session.ttl",
	"session_cookie_name":     "session.cookie_name",
	"session_secure":          "session.secure",
	"cors_origins":            "security.cors_origins",
	"rate_limit_requests":     "security.rate_limit_requests",
	"rate_limit_window":       "security.rate_limit_window",
	"disable_rate_limit":      "security.rate_limit_disabled",
	"admin_username":          "security.admin_username",
	"admin_password_hash":     "security.admin_password_hash",
	"analytics_engine":        "analytics.engine",
	"analytics_recent_limit":  "analytics.recent_limit",
	"analytics_cache_ttl":     "analytics.cache_ttl",
	"deadletter_enabled":      "deadletter.enabled",
	"deadletter_path":         "deadletter.path",
	"breaker_enabled":         "breaker.enabled",
	"breaker_max_failures":    "breaker.max_failures",
	"breaker_timeout":         "breaker.timeout",
	"slow_request_threshold":  "performance.slow_threshold",
}

// envTransformFunc maps environment variable names to koanf paths.
// Returning "" drops the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
