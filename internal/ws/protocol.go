package ws

import "encoding/json"

// Message types for the relay WebSocket protocol.
const (
	// Relay → Client
	TypeMessage          = "message"
	TypeThinking         = "thinking"
	TypeToolUse          = "tool_use"
	TypeApprovalRequired = "approval_required"
	TypeApprovalRequest  = "approval_request"
	TypeFileChange       = "file_change"
	TypeError            = "error"
	TypeSessionLoaded    = "session_loaded"
	TypeCodeOutput       = "code_output"
	TypeCodeError        = "code_error"

	// Client → Relay
	TypeRunCode          = "run_code"
	TypeApprovalResponse = "approval_response"
	TypeNewSession       = "new_session"
	TypeSetSession       = "set_session"
	TypeSetProject       = "set_project"
	TypeBroLevel         = "bro_level"
)

// Envelope wraps every WebSocket frame with a type field for routing.
type Envelope struct {
	Type string `json:"type"`
}

// Tag extracts the routing tag from a raw frame. Returns "" for frames
// that are not JSON objects with a string type field.
func Tag(data []byte) string {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	return env.Type
}

// MessageIn is a chat reply pushed by the relay. The session fields are
// set once the relay has bound the conversation to a stored session.
type MessageIn struct {
	Type         string `json:"type"`
	Content      string `json:"content"`
	SessionID    string `json:"session_id,omitempty"`
	SessionTitle string `json:"session_title,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
}

// MessageOut is a chat message sent by the user.
type MessageOut struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	BroLevel  int    `json:"bro_level"`
}

// Thinking is a transient "working on it" indicator.
type Thinking struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ToolUse announces a tool invocation by the remote agent.
type ToolUse struct {
	Type  string          `json:"type"`
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ApprovalRequired asks the user to confirm an assistant-proposed action.
type ApprovalRequired struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

// ApprovalRequest asks the user to confirm an operation the paired agent
// wants to perform. The details shape depends on the operation kind.
type ApprovalRequest struct {
	Type       string           `json:"type"`
	ApprovalID string           `json:"approval_id"`
	Details    OperationDetails `json:"details"`
}

// OperationDetails carries the operation-specific fields of an agent
// approval request. Only the fields relevant to Operation are populated.
type OperationDetails struct {
	Operation     string `json:"operation"`
	OperationName string `json:"operation_name,omitempty"`
	Path          string `json:"path,omitempty"`
	Preview       string `json:"preview,omitempty"`
	TotalLines    int    `json:"total_lines,omitempty"`
	OldString     string `json:"old_string,omitempty"`
	NewString     string `json:"new_string,omitempty"`
	Command       string `json:"command,omitempty"`
	CWD           string `json:"cwd,omitempty"`
	Language      string `json:"language,omitempty"`
}

// ApprovalResponse answers either approval flow. ID correlates an
// assistant-action prompt; ApprovalID correlates an agent operation.
type ApprovalResponse struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	ApprovalID string `json:"approval_id,omitempty"`
	Approved   bool   `json:"approved"`
	Trust      bool   `json:"trust,omitempty"`
}

// FileChange reports a file the remote agent created, edited or deleted.
type FileChange struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	File    string `json:"file"`
	Diff    string `json:"diff,omitempty"`
	Content string `json:"content,omitempty"`
}

// ErrorMsg is sent by the relay for protocol or execution errors.
type ErrorMsg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SessionLoaded carries a stored transcript after set_session.
type SessionLoaded struct {
	Type     string              `json:"type"`
	Messages []TranscriptMessage `json:"messages"`
}

// TranscriptMessage is one turn of a stored conversation.
type TranscriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CodeOutput is the result of a run_code execution.
type CodeOutput struct {
	Type          string `json:"type"`
	Output        string `json:"output"`
	ExitCode      int    `json:"exit_code"`
	Mode          string `json:"mode"`
	DurationMs    int64  `json:"duration_ms,omitempty"`
	BillableUnits int64  `json:"billable_units,omitempty"`
}

// CodeError reports a run_code execution that never produced output.
type CodeError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// RunCode asks the relay to execute code on the selected backend.
// Mode is "local" (paired desktop agent) or "virtual" (cloud sandbox).
type RunCode struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Mode      string `json:"mode"`
	Language  string `json:"language"`
	ProjectID string `json:"project_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewSession starts a fresh conversation, optionally under a project.
type NewSession struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id,omitempty"`
}

// SetSession switches the relay-side conversation to a stored session.
type SetSession struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// SetProject switches the relay-side conversation to another project.
type SetProject struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// BroLevelMsg pushes the user's vibe preference to the relay.
type BroLevelMsg struct {
	Type  string `json:"type"`
	Level int    `json:"level"`
}
