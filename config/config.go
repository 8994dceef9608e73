// Package config loads server configuration from a YAML file with sensible
// defaults and a PORT environment override.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backends selectable in configuration.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the runtime configuration of the server process.
type Config struct {
	Addr     string  `yaml:"addr"`
	LogLevel string  `yaml:"log_level"`
	Storage  Storage `yaml:"storage"`
}

// Storage selects and parameterizes the document store backend.
type Storage struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Addr:     ":8000",
		LogLevel: "info",
		Storage: Storage{
			Backend: BackendSQLite,
			Path:    "tabular.db",
		},
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// yields the defaults unchanged. A PORT environment variable, when set,
// overrides the listen address.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	return nil
}
