// Package execmode decides where code runs: on the paired desktop agent
// or in a provisioned cloud sandbox. It owns the pairing handshake and
// the sandbox bring-up poll loop.
package execmode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vibewithgary/gary/internal/api"
	"github.com/vibewithgary/gary/internal/ws"
)

const (
	// ModeLocal routes execution to the paired desktop agent.
	ModeLocal = "local"
	// ModeVirtual routes execution to a cloud sandbox.
	ModeVirtual = "virtual"

	pairCodeLen         = 6
	defaultPollInterval = time.Second
	defaultPollAttempts = 30
)

// ErrBadPairCode is returned before any network call when the pairing
// code has the wrong length.
var ErrBadPairCode = fmt.Errorf("pairing code must be %d characters", pairCodeLen)

// ErrProvisionTimeout is returned when a sandbox's agent fails to
// attach within the poll window. A fresh StartCloudSession is required.
var ErrProvisionTimeout = errors.New("sandbox did not come online in time")

// Sender transmits outbound envelopes. Satisfied by ws.Router.
type Sender interface {
	Send(v any) error
}

// Relay is the slice of the HTTP API the selector needs.
type Relay interface {
	PairAgent(ctx context.Context, code string) error
	Status(ctx context.Context) (*api.AgentStatus, error)
	Sandboxes(ctx context.Context) ([]api.Sandbox, error)
	CreateSandbox(ctx context.Context) (*api.Sandbox, error)
}

// Dialer opens the relay message channel. Satisfied by ws.Channel.
type Dialer interface {
	Connect(ctx context.Context, token string)
}

// Focus reports the session and project ids to stamp onto run_code
// envelopes. Satisfied by a closure over session.Context.
type Focus func() (sessionID, projectID string)

// Selector picks the execution backend for each run and drives the
// flows that make a backend available.
type Selector struct {
	PollInterval time.Duration
	PollAttempts int

	sender  Sender
	relay   Relay
	channel Dialer
	focus   Focus
	token   func() string

	mu     sync.Mutex
	paired bool
}

// New builds a Selector. token reports the currently held bearer token
// and focus the current session/project ids; both may return zero
// values.
func New(sender Sender, relay Relay, channel Dialer, token func() string, focus Focus) *Selector {
	return &Selector{
		PollInterval: defaultPollInterval,
		PollAttempts: defaultPollAttempts,
		sender:       sender,
		relay:        relay,
		channel:      channel,
		focus:        focus,
		token:        token,
	}
}

// Paired reports whether a desktop agent is attached.
func (s *Selector) Paired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paired
}

// SetPaired switches the routing target. Exposed for status polls that
// observe the agent detaching.
func (s *Selector) SetPaired(paired bool) {
	s.mu.Lock()
	s.paired = paired
	s.mu.Unlock()
}

// RunCode submits code for execution, targeting the desktop agent when
// one is paired and a cloud sandbox otherwise. Returns the invocation
// id used to correlate the eventual code_output.
func (s *Selector) RunCode(code, language string) (string, error) {
	mode := ModeVirtual
	if s.Paired() {
		mode = ModeLocal
	}
	sessionID, projectID := s.focus()
	id := uuid.NewString()
	err := s.sender.Send(&ws.RunCode{
		Type:      ws.TypeRunCode,
		Code:      code,
		Mode:      mode,
		Language:  language,
		ProjectID: projectID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", err
	}
	slog.Debug("run_code submitted", "invocation", id, "mode", mode, "language", language)
	return id, nil
}

// Pair exchanges a desktop agent's one-time code for an attachment.
// Length is checked locally; a missing token fails before any network
// call; a relay rejection carries the server's reason verbatim.
func (s *Selector) Pair(ctx context.Context, code string) error {
	if len(code) != pairCodeLen {
		return ErrBadPairCode
	}
	if s.token() == "" {
		return api.ErrUnauthenticated
	}
	if err := s.relay.PairAgent(ctx, code); err != nil {
		return err
	}
	s.SetPaired(true)
	return nil
}

// StartCloudSession makes a sandbox available and opens the message
// channel once its agent has attached. A running sandbox is reused;
// otherwise one is provisioned. The attach wait is bounded: polls at
// PollInterval up to PollAttempts, then gives up with
// ErrProvisionTimeout and leaves reconnection to a fresh call.
func (s *Selector) StartCloudSession(ctx context.Context) (*api.Sandbox, error) {
	sb, err := s.acquireSandbox(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.PollAttempts; attempt++ {
		status, err := s.relay.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status.DesktopConnected {
			s.SetPaired(true)
			s.channel.Connect(ctx, s.token())
			return sb, nil
		}
		select {
		case <-time.After(s.PollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, ErrProvisionTimeout
}

func (s *Selector) acquireSandbox(ctx context.Context) (*api.Sandbox, error) {
	existing, err := s.relay.Sandboxes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Status == "running" {
			slog.Debug("reusing sandbox", "id", existing[i].ID)
			return &existing[i], nil
		}
	}
	sb, err := s.relay.CreateSandbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("provision sandbox: %w", err)
	}
	return sb, nil
}
