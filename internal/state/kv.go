package state

import (
	"database/sql"
	"fmt"
	"strconv"
)

const (
	keyToken    = "token"
	keyUsername = "username"
	keyBroLevel = "bro_level"
)

func (s *Store) get(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

// SaveToken persists the bearer token so later launches reconnect
// without a fresh login.
func (s *Store) SaveToken(token string) error {
	return s.set(keyToken, token)
}

// ClearToken removes the stored credential. Username and preferences
// survive a logout.
func (s *Store) ClearToken() error {
	return s.delete(keyToken)
}

func (s *Store) Username() (string, error) {
	return s.get(keyUsername)
}

func (s *Store) SetUsername(name string) error {
	return s.set(keyUsername, name)
}

// BroLevel returns the stored personality intensity, defaulting to 50.
func (s *Store) BroLevel() (int, error) {
	v, err := s.get(keyBroLevel)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 50, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 50, nil
	}
	return clampLevel(n), nil
}

// SetBroLevel stores the personality intensity, clamped to 0..100.
func (s *Store) SetBroLevel(level int) error {
	return s.set(keyBroLevel, strconv.Itoa(clampLevel(level)))
}

func clampLevel(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
