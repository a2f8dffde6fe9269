// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package config loads and validates the application configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file, then environment variables. Later layers override
// earlier ones.
package config

import (
	"time"

	"github.com/geochat-dev/geochat/internal/models"
)

// Config is the root application configuration.
type Config struct {
	Relays  RelaysConfig  `koanf:"relays" validate:"required"`
	Server  ServerConfig  `koanf:"server" validate:"required"`
	Logging LoggingConfig `koanf:"logging" validate:"required"`
}

// RelaysConfig controls the Nostr ingestion side.
type RelaysConfig struct {
	// URLs lists the relay endpoints to subscribe to. Each runs as its
	// own supervised connection.
	URLs []string `koanf:"urls" validate:"min=1,dive,required,startswith=ws"`

	// EventKind is the numeric Nostr kind to subscribe to. Ephemeral
	// kinds are 20000-29999; the geochat convention is 20000.
	EventKind int `koanf:"event_kind" validate:"min=0,max=65535"`
}

// ServerConfig controls the HTTP and websocket surface.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`

	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is requests per client IP per RateLimitWindow.
	RateLimit       int           `koanf:"rate_limit" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Relays: RelaysConfig{
			URLs: []string{
				"wss://relay.damus.io",
				"wss://nos.lol",
				"wss://relay.primal.net",
			},
			EventKind: models.DefaultEventKind,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
