// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geochat/config.yaml",
	"/etc/geochat/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "GEOCHAT_CONFIG"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "GEOCHAT_"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. GEOCHAT_* environment variables (highest priority)
//
// The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
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

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps GEOCHAT_* environment variables (prefix stripped,
// lowercased) to koanf config paths. Explicit mapping avoids guessing
// where a section name ends and a multi-word key begins.
var envMappings = map[string]string{
	"relays_urls":       "relays.urls",
	"relays_event_kind": "relays.event_kind",

	"server_host":              "server.host",
	"server_port":              "server.port",
	"server_read_timeout":      "server.read_timeout",
	"server_write_timeout":     "server.write_timeout",
	"server_shutdown_timeout":  "server.shutdown_timeout",
	"server_cors_origins":      "server.cors_origins",
	"server_rate_limit":        "server.rate_limit",
	"server_rate_limit_window": "server.rate_limit_window",

	"logging_level":  "logging.level",
	"logging_format": "logging.format",
	"logging_caller": "logging.caller",
}

// envTransformFunc maps a stripped env var name to its koanf path.
// Unknown variables are dropped rather than guessed at.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths lists paths parsed as comma-separated slices when
// they arrive as plain strings from the environment.
var sliceConfigPaths = []string{
	"relays.urls",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. YAML-sourced values are already slices and
// are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
