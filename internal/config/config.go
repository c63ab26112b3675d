// Package config loads the client configuration persisted in
// ~/.gary/config.yaml.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultRelayURL = "https://relay.vibewithgary.com"

// Config represents the application configuration
type Config struct {
	Relay    RelayConfig    `yaml:"relay"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type RelayConfig struct {
	URL string `yaml:"url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from a file. A missing file yields the
// defaults; the relay URL can always be overridden through GARY_RELAY_URL.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Relay:   RelayConfig{URL: defaultRelayURL},
		Logging: LoggingConfig{Level: "info"},
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if u := os.Getenv("GARY_RELAY_URL"); u != "" {
		cfg.Relay.URL = u
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path, err = DBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Relay.URL == "" {
		return fmt.Errorf("relay.url is required")
	}
	if !strings.HasPrefix(c.Relay.URL, "http://") && !strings.HasPrefix(c.Relay.URL, "https://") {
		return fmt.Errorf("relay.url must be an http(s) URL")
	}
	return nil
}

// ChannelURL derives the WebSocket endpoint from the relay base URL.
func (c *Config) ChannelURL() string {
	u := strings.Replace(c.Relay.URL, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimRight(u, "/") + "/ws/client"
}
