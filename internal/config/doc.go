// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package config loads and validates Marquee configuration.
//
// # Sources
//
// Configuration is layered with koanf, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
//     /etc/marquee/config.yaml
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// Unmapped environment variables are ignored so that unrelated process
// environment never leaks into the configuration tree.
//
// # Event Pipeline
//
// The events section controls the ingestion pipeline:
//
//	events:
//	  log_dir: data/logs          # per-kind CSV logs
//	  queue_capacity: 10000       # bounded queue size
//	  dequeue_timeout: 1s         # worker wake-up interval
//	  shutdown_deadline: 5s       # drain budget on shutdown
//	  drop_log_interval: 1s       # min spacing of queue-full warnings
//
// # Environment Variables
//
//	HTTP_PORT, HTTP_HOST              server.port, server.host
//	LOG_LEVEL, LOG_FORMAT             logging.level, logging.format
//	EVENT_LOG_DIR                     events.log_dir
//	EVENT_QUEUE_CAPACITY              events.queue_capacity
//	EVENT_SHUTDOWN_DEADLINE           events.shutdown_deadline
//	EXPERIMENT_HASH, EXPERIMENT_SALT  experiment.hash, experiment.salt
//	SESSION_SECRET                    session.secret
//	ADMIN_USERNAME                    security.admin_username
//	ADMIN_PASSWORD_HASH               security.admin_password_hash
//	CORS_ORIGINS                      security.cors_origins (comma separated)
//	ANALYTICS_ENGINE                  analytics.engine
//	ANALYTICS_CACHE_TTL               analytics.cache_ttl
//	DEADLETTER_ENABLED                deadletter.enabled
package config
