package main

import (
	"fmt"

	"github.com/vibewithgary/gary/internal/api"
	"github.com/vibewithgary/gary/internal/config"
	"github.com/vibewithgary/gary/internal/state"
)

// app bundles the pieces every subcommand needs: config, the durable
// state store and an API client carrying the stored token.
type app struct {
	cfg   *config.Config
	store *state.Store
	api   *api.Client
}

func openApp(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	s, err := state.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	token, err := s.Token()
	if err != nil {
		s.Close()
		return nil, err
	}
	return &app{
		cfg:   cfg,
		store: s,
		api:   api.New(cfg.Relay.URL, token),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// requireToken fails fast for commands that need an authenticated relay.
func (a *app) requireToken() error {
	if a.api.Token == "" {
		return fmt.Errorf("not logged in — run: gary login")
	}
	return nil
}
