package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthenticated is returned when a call needs a bearer token and
// none is held. The remedy is logging in (or pairing) first.
var ErrUnauthenticated = errors.New("not logged in")

// RequestError is a non-success HTTP response from the relay. Detail is
// the server-provided message, surfaced verbatim and never retried.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("relay returned status %d", e.Status)
}

// Client talks to the relay's REST surface. All authenticated calls carry
// the bearer token; all responses are JSON.
type Client struct {
	BaseURL string // e.g. "https://api.vibewithgary.com"
	Token   string
	HTTP    *http.Client
}

// New returns a client for baseURL. Token may be empty until login.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// LoginURL is the browser entry point for the OAuth login flow. The web
// app hands the resulting session token back to the user.
func (c *Client) LoginURL() string {
	return c.BaseURL + "/auth/github"
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fail struct {
			Detail string `json:"detail"`
		}
		json.NewDecoder(resp.Body).Decode(&fail)
		return &RequestError{Status: resp.StatusCode, Detail: fail.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authed is do with a local token check so misconfigured calls fail
// before touching the network.
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	if c.Token == "" {
		return ErrUnauthenticated
	}
	return c.do(ctx, method, path, body, out)
}
