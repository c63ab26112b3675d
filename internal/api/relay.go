package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Project is a relay-owned grouping of chat sessions.
type Project struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	CreatedAt float64 `json:"created_at,omitempty"`
}

// ChatSummary is one entry of a project's chat list, newest first.
type ChatSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	CreatedAt float64 `json:"created_at,omitempty"`
	UpdatedAt float64 `json:"updated_at,omitempty"`
}

// Transcript is a stored session with its full message history.
type Transcript struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	CreatedAt float64 `json:"created_at,omitempty"`
	UpdatedAt float64 `json:"updated_at,omitempty"`
}

// Me is the authenticated account.
type Me struct {
	UserID         string  `json:"user_id"`
	GithubUsername string  `json:"github_username"`
	CreatedAt      float64 `json:"created_at,omitempty"`
}

// AgentStatus reports whether an execution agent is attached to the
// account, be it the paired desktop agent or a cloud sandbox's agent.
type AgentStatus struct {
	DesktopConnected bool     `json:"desktop_connected"`
	ConnectedSince   *float64 `json:"connected_since"`
}

// Sandbox is an ephemeral cloud execution environment.
type Sandbox struct {
	ID         string  `json:"vm_id"`
	Status     string  `json:"status"`
	Region     string  `json:"region,omitempty"`
	CreatedAt  float64 `json:"created_at,omitempty"`
	LastActive float64 `json:"last_active,omitempty"`
}

// UsageSummary aggregates code-execution usage for billing display.
type UsageSummary struct {
	Total struct {
		Executions    int64 `json:"executions"`
		DurationMs    int64 `json:"duration_ms"`
		BillableUnits int64 `json:"billable_units"`
		VirtualCount  int64 `json:"virtual_count"`
		LocalCount    int64 `json:"local_count"`
	} `json:"total"`
	Unbilled struct {
		Executions       int64   `json:"executions"`
		BillableUnits    int64   `json:"billable_units"`
		EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	} `json:"unbilled"`
}

// Register creates an anonymous account and returns its credentials.
// The only unauthenticated POST on the relay.
func (c *Client) Register(ctx context.Context) (userID, apiKey string, err error) {
	var out struct {
		UserID string `json:"user_id"`
		APIKey string `json:"api_key"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/register", struct{}{}, &out); err != nil {
		return "", "", fmt.Errorf("register: %w", err)
	}
	return out.UserID, out.APIKey, nil
}

// PairAgent exchanges a desktop agent's pairing code for an attachment.
func (c *Client) PairAgent(ctx context.Context, code string) error {
	body := map[string]string{"code": code}
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return c.authed(ctx, http.MethodPost, "/api/pair-agent", body, &out)
}

// Status reports whether an agent is currently attached.
func (c *Client) Status(ctx context.Context) (*AgentStatus, error) {
	var out AgentStatus
	if err := c.authed(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the authenticated account.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.authed(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projects lists the account's projects, the relay being the source of
// truth for the client-side mirror.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// CreateProject makes a new project and returns its id.
func (c *Client) CreateProject(ctx context.Context, name string) (string, error) {
	var out struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.authed(ctx, http.MethodPost, "/api/projects", map[string]string{"name": name}, &out); err != nil {
		return "", err
	}
	return out.ProjectID, nil
}

// RenameProject updates a project's name.
func (c *Client) RenameProject(ctx context.Context, id, name string) error {
	return c.authed(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id), map[string]string{"name": name}, nil)
}

// DeleteProject removes a project and all its chats.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

// ProjectChats fetches the ordered chat list of one project.
func (c *Client) ProjectChats(ctx context.Context, projectID string) ([]ChatSummary, error) {
	var out struct {
		Chats []ChatSummary `json:"chats"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(projectID), nil, &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// Sessions lists all of the account's stored sessions, newest first.
// The relay returns a bare array for this endpoint.
func (c *Client) Sessions(ctx context.Context) ([]ChatSummary, error) {
	var out []ChatSummary
	if err := c.authed(ctx, http.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Session fetches a stored session with its full transcript.
func (c *Client) Session(ctx context.Context, id string) (*Transcript, error) {
	var out Transcript
	if err := c.authed(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession removes a stored session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// Sandboxes lists the account's cloud sandboxes (destroyed ones excluded
// server-side).
func (c *Client) Sandboxes(ctx context.Context) ([]Sandbox, error) {
	var out struct {
		VMs []Sandbox `json:"vms"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/vm", nil, &out); err != nil {
		return nil, err
	}
	return out.VMs, nil
}

// CreateSandbox provisions a new cloud sandbox. When the account already
// has one running, the relay returns it instead of provisioning.
func (c *Client) CreateSandbox(ctx context.Context) (*Sandbox, error) {
	var out struct {
		Sandbox
		Error string   `json:"error"`
		VM    *Sandbox `json:"vm"`
	}
	if err := c.authed(ctx, http.MethodPost, "/api/vm/create", struct{}{}, &out); err != nil {
		return nil, err
	}
	if out.Error != "" && out.VM != nil {
		return out.VM, nil
	}
	return &out.Sandbox, nil
}

// DestroySandbox tears a sandbox down.
func (c *Client) DestroySandbox(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/api/vm/"+url.PathEscape(id), nil, nil)
}

// Usage fetches the account's execution usage summary.
func (c *Client) Usage(ctx context.Context) (*UsageSummary, error) {
	var out UsageSummary
	if err := c.authed(ctx, http.MethodGet, "/api/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
