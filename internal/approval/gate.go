// Package approval gates state-changing operations behind an explicit
// human decision. Two independent flows exist: assistant-proposed
// actions (correlated by id) and remote-agent operations (correlated by
// approval_id, with optional session-level trust). Each flow holds at
// most one pending request; a newer request overwrites an unanswered
// one, relying on the relay to keep at most one outstanding per session.
package approval

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vibewithgary/gary/internal/ws"
)

// ErrNoPending is returned when a response is issued with no request
// waiting in that flow's slot.
var ErrNoPending = errors.New("no approval pending")

// Sender transmits outbound envelopes. Satisfied by ws.Router.
type Sender interface {
	Send(v any) error
}

// Prompt is the display payload for a pending agent operation.
type Prompt struct {
	ApprovalID string
	Operation  string
	Title      string
	Lines      []string
}

// Gate holds the pending request of each approval flow and emits the
// correlated responses.
type Gate struct {
	// OnAction presents an assistant-proposed action to the user.
	OnAction func(req *ws.ApprovalRequired)
	// OnOperation presents a remote-agent operation to the user.
	OnOperation func(p *Prompt)

	sender Sender

	mu        sync.Mutex
	action    *ws.ApprovalRequired
	operation *ws.ApprovalRequest
}

func NewGate(sender Sender) *Gate {
	return &Gate{sender: sender}
}

// HandleApprovalRequired fills the user-action slot, overwriting any
// unanswered request.
func (g *Gate) HandleApprovalRequired(req *ws.ApprovalRequired) {
	g.mu.Lock()
	g.action = req
	g.mu.Unlock()
	if g.OnAction != nil {
		g.OnAction(req)
	}
}

// HandleApprovalRequest fills the agent-operation slot, overwriting any
// unanswered request.
func (g *Gate) HandleApprovalRequest(req *ws.ApprovalRequest) {
	g.mu.Lock()
	g.operation = req
	g.mu.Unlock()
	if g.OnOperation != nil {
		g.OnOperation(Summarize(req))
	}
}

// PendingAction returns the unanswered assistant-action request, or nil.
func (g *Gate) PendingAction() *ws.ApprovalRequired {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.action
}

// PendingOperation returns the unanswered agent-operation request, or nil.
func (g *Gate) PendingOperation() *ws.ApprovalRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.operation
}

// RespondAction answers the pending assistant action. The slot is
// cleared whether or not the send succeeds.
func (g *Gate) RespondAction(approved bool) error {
	g.mu.Lock()
	req := g.action
	g.action = nil
	g.mu.Unlock()
	if req == nil {
		return ErrNoPending
	}
	return g.sender.Send(&ws.ApprovalResponse{
		Type:     ws.TypeApprovalResponse,
		ID:       req.ID,
		Approved: approved,
	})
}

// Approve allows the pending agent operation once.
func (g *Gate) Approve() error {
	return g.respondOperation(true, false)
}

// ApproveTrust allows the pending agent operation and asks the relay to
// auto-approve equivalent operations for the rest of the session.
func (g *Gate) ApproveTrust() error {
	return g.respondOperation(true, true)
}

// Deny rejects the pending agent operation.
func (g *Gate) Deny() error {
	return g.respondOperation(false, false)
}

func (g *Gate) respondOperation(approved, trust bool) error {
	g.mu.Lock()
	req := g.operation
	g.operation = nil
	g.mu.Unlock()
	if req == nil {
		return ErrNoPending
	}
	return g.sender.Send(&ws.ApprovalResponse{
		Type:       ws.TypeApprovalResponse,
		ApprovalID: req.ApprovalID,
		Approved:   approved,
		Trust:      trust,
	})
}

var operationNames = map[string]string{
	"write_file":  "Write file",
	"edit_file":   "Edit file",
	"delete_file": "Delete file",
	"bash":        "Run command",
	"execute":     "Execute code",
}

// Summarize builds the operation-keyed display payload for an agent
// approval request.
func Summarize(req *ws.ApprovalRequest) *Prompt {
	d := req.Details
	title := d.OperationName
	if title == "" {
		if name, ok := operationNames[d.Operation]; ok {
			title = name
		} else {
			title = d.Operation
		}
	}
	p := &Prompt{ApprovalID: req.ApprovalID, Operation: d.Operation, Title: title}

	switch d.Operation {
	case "write_file":
		p.Lines = append(p.Lines, d.Path)
		p.Lines = append(p.Lines, previewLines(d.Preview, d.TotalLines)...)
	case "edit_file":
		p.Lines = append(p.Lines, d.Path)
		p.Lines = append(p.Lines, fmt.Sprintf("replace %q with %q", d.OldString, d.NewString))
	case "delete_file":
		p.Lines = append(p.Lines, d.Path)
	case "bash":
		p.Lines = append(p.Lines, d.Command)
		if d.CWD != "" {
			p.Lines = append(p.Lines, "in "+d.CWD)
		}
	case "execute":
		p.Lines = append(p.Lines, d.Language)
		p.Lines = append(p.Lines, previewLines(d.Preview, d.TotalLines)...)
	default:
		if d.Path != "" {
			p.Lines = append(p.Lines, d.Path)
		}
	}
	return p
}

func previewLines(preview string, total int) []string {
	var lines []string
	if preview != "" {
		lines = append(lines, strings.TrimRight(preview, "\n"))
	}
	if total > 0 {
		lines = append(lines, fmt.Sprintf("%d lines", total))
	}
	return lines
}
