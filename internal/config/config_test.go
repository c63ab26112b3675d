package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Relay.URL != defaultRelayURL {
		t.Errorf("relay url = %q, want default", cfg.Relay.URL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Database.Path == "" {
		t.Error("database path not resolved")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("relay:\n  url: https://relay.example.com\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Relay.URL != "https://relay.example.com" {
		t.Errorf("relay url = %q", cfg.Relay.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}

	t.Setenv("GARY_RELAY_URL", "http://localhost:8000")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Relay.URL != "http://localhost:8000" {
		t.Errorf("relay url = %q, env must win", cfg.Relay.URL)
	}
}

func TestChannelURL(t *testing.T) {
	cases := []struct {
		base, want string
	}{
		{"https://relay.vibewithgary.com", "wss://relay.vibewithgary.com/ws/client"},
		{"http://localhost:8000/", "ws://localhost:8000/ws/client"},
	}
	for _, tc := range cases {
		cfg := &Config{Relay: RelayConfig{URL: tc.base}}
		if got := cfg.ChannelURL(); got != tc.want {
			t.Errorf("ChannelURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestValidateRejectsBadScheme(t *testing.T) {
	cfg := &Config{Relay: RelayConfig{URL: "ftp://relay"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error")
	}
}
