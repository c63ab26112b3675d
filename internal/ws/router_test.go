package ws

import (
	"encoding/json"
	"testing"
)

func TestRouterDispatchOrderWithUnknownTags(t *testing.T) {
	ch := &Channel{URL: "ws://127.0.0.1:1/ws/client"}
	r := NewRouter(ch)

	var seen []string
	r.Handle(TypeMessage, func(data []byte) {
		var m MessageIn
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
		seen = append(seen, "message:"+m.Content)
	})
	r.Handle(TypeThinking, func(data []byte) {
		seen = append(seen, "thinking")
	})

	frames := []string{
		`{"type":"message","content":"a"}`,
		`{"type":"totally_new_tag","payload":123}`,
		`{"type":"thinking"}`,
		`{"type":"another_unknown"}`,
		`not even json`,
		`{"type":"message","content":"b"}`,
	}
	for _, f := range frames {
		ch.OnFrame([]byte(f))
	}

	want := []string{"message:a", "thinking", "message:b"}
	if len(seen) != len(want) {
		t.Fatalf("dispatched %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("dispatch[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestRouterHandlerReplacement(t *testing.T) {
	ch := &Channel{URL: "ws://127.0.0.1:1/ws/client"}
	r := NewRouter(ch)

	var first, second int
	r.Handle(TypeError, func([]byte) { first++ })
	r.Handle(TypeError, func([]byte) { second++ })

	ch.OnFrame([]byte(`{"type":"error","content":"boom"}`))

	if first != 0 || second != 1 {
		t.Errorf("handlers hit = (%d, %d), want (0, 1)", first, second)
	}
}

func TestApprovalRequestDetailsDecode(t *testing.T) {
	raw := `{"type":"approval_request","approval_id":"a1","details":{"operation":"bash","operation_name":"Run command","command":"ls -la","cwd":"/tmp"}}`
	var req ApprovalRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.ApprovalID != "a1" {
		t.Errorf("ApprovalID = %q, want a1", req.ApprovalID)
	}
	if req.Details.Operation != "bash" || req.Details.Command != "ls -la" || req.Details.CWD != "/tmp" {
		t.Errorf("details = %+v", req.Details)
	}
}

func TestApprovalResponseWireShape(t *testing.T) {
	// Flow A responses carry "id"; flow B responses carry "approval_id".
	a, _ := json.Marshal(ApprovalResponse{Type: TypeApprovalResponse, ID: "x", Approved: true})
	if string(a) != `{"type":"approval_response","id":"x","approved":true}` {
		t.Errorf("flow A shape = %s", a)
	}
	b, _ := json.Marshal(ApprovalResponse{Type: TypeApprovalResponse, ApprovalID: "y", Approved: true, Trust: true})
	if string(b) != `{"type":"approval_response","approval_id":"y","approved":true,"trust":true}` {
		t.Errorf("flow B shape = %s", b)
	}
}
