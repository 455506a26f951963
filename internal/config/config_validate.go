// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

var validHashes = map[string]bool{
	"md5": true, "murmur3": true,
}

var validEngines = map[string]bool{
	"csv": true, "duckdb": true,
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateExperiment(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	return c.validateBreaker()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if strings.TrimSpace(c.Events.LogDir) == "" {
		return fmt.Errorf("EVENT_LOG_DIR is required")
	}
	if c.Events.QueueCapacity < 1 {
		return fmt.Errorf("EVENT_QUEUE_CAPACITY must be at least 1, got %d", c.Events.QueueCapacity)
	}
	if c.Events.DequeueTimeout < 10*time.Millisecond {
		return fmt.Errorf("EVENT_DEQUEUE_TIMEOUT must be at least 10ms, got %s", c.Events.DequeueTimeout)
	}
	if c.Events.ShutdownDeadline <= 0 {
		return fmt.Errorf("EVENT_SHUTDOWN_DEADLINE must be positive, got %s", c.Events.ShutdownDeadline)
	}
	if c.Events.DropLogInterval < 0 {
		return fmt.Errorf("EVENT_DROP_LOG_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateExperiment() error {
	if !validHashes[c.Experiment.Hash] {
		return fmt.Errorf("EXPERIMENT_HASH must be one of: md5, murmur3")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.Count < 1 {
		return fmt.Errorf("RECOMMEND_COUNT must be at least 1")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}
	if !c.IsProduction() {
		return nil
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}
	if containsPlaceholder(c.Session.Secret) {
		return fmt.Errorf("SESSION_SECRET looks like a placeholder value")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	if (c.Security.AdminUsername == "") != (c.Security.AdminPasswordHash == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD_HASH must be set together")
	}
	if h := c.Security.AdminPasswordHash; h != "" && !strings.HasPrefix(h, "$2") {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash")
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	if !validEngines[c.Analytics.Engine] {
		return fmt.Errorf("ANALYTICS_ENGINE must be one of: csv, duckdb")
	}
	if c.Analytics.RecentLimit < 1 {
		return fmt.Errorf("ANALYTICS_RECENT_LIMIT must be at least 1")
	}
	if c.Analytics.CacheTTL < 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.MaxFailures == 0 {
		return fmt.Errorf("BREAKER_MAX_FAILURES must be at least 1")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("BREAKER_TIMEOUT must be positive")
	}
	return nil
}

var placeholderPatterns = []string{
	"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_SECRET", "PLACEHOLDER", "EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
