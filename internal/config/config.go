// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads Gatehouse configuration: defaults, then an optional
// YAML file, then command-line flags, each layer overriding the last.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gatehouse/gatehouse/internal/xdg"
)

// Config holds runtime settings for the Gatehouse service.
type Config struct {
	// Listen is the bind address of the REST endpoint.
	Listen string `koanf:"listen"`

	// MetricsListen is the bind address of the metrics/health endpoint.
	MetricsListen string `koanf:"metrics_listen"`

	// DatabaseURL is the PostgreSQL DSN (pgx).
	DatabaseURL string `koanf:"database_url"`

	// PasswordSalt is the deployment-wide secret mixed into credential
	// digests. Empty is a declared weaker mode, not an error.
	PasswordSalt string `koanf:"password_salt"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		Listen:        ":8080",
		MetricsListen: ":9090",
		LogFormat:     "json",
	}
}

// DefaultPath returns the default config file location under the user
// config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

// Load builds the configuration. path selects the YAML file; when empty the
// default path is used if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	for key, value := range map[string]any{
		"listen":         defaults.Listen,
		"metrics_listen": defaults.MetricsListen,
		"database_url":   defaults.DatabaseURL,
		"password_salt":  defaults.PasswordSalt,
		"log_format":     defaults.LogFormat,
	} {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").
				With("path", path).
				Wrap(err)
		}
	} else if explicit {
		return nil, oops.Code("CONFIG_FILE_MISSING").
			With("path", path).
			Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}

	return &cfg, nil
}
