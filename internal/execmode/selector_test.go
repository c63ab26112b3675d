package execmode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibewithgary/gary/internal/api"
	"github.com/vibewithgary/gary/internal/ws"
)

type fakeSender struct {
	sent []*ws.RunCode
}

func (f *fakeSender) Send(v any) error {
	f.sent = append(f.sent, v.(*ws.RunCode))
	return nil
}

type fakeRelay struct {
	pairCalls     int
	pairErr       error
	statusCalls   int
	connectedAt   int // status call index at which the agent appears, 0 = never
	sandboxes     []api.Sandbox
	created       *api.Sandbox
	createErr     error
	createCalls   int
	sandboxesErr  error
	sandboxesSeen int
}

func (f *fakeRelay) PairAgent(_ context.Context, code string) error {
	f.pairCalls++
	return f.pairErr
}

func (f *fakeRelay) Status(_ context.Context) (*api.AgentStatus, error) {
	f.statusCalls++
	connected := f.connectedAt > 0 && f.statusCalls >= f.connectedAt
	return &api.AgentStatus{DesktopConnected: connected}, nil
}

func (f *fakeRelay) Sandboxes(_ context.Context) ([]api.Sandbox, error) {
	f.sandboxesSeen++
	return f.sandboxes, f.sandboxesErr
}

func (f *fakeRelay) CreateSandbox(_ context.Context) (*api.Sandbox, error) {
	f.createCalls++
	return f.created, f.createErr
}

type fakeDialer struct {
	connects int
	token    string
}

func (f *fakeDialer) Connect(_ context.Context, token string) {
	f.connects++
	f.token = token
}

func newTestSelector(sender *fakeSender, relay *fakeRelay, dialer *fakeDialer, token string) *Selector {
	s := New(sender, relay, dialer,
		func() string { return token },
		func() (string, string) { return "s1", "p1" })
	s.PollInterval = time.Millisecond
	return s
}

func TestRunCodeRoutesByPairing(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSelector(sender, &fakeRelay{}, &fakeDialer{}, "tok")

	if _, err := s.RunCode("print(1)", "python"); err != nil {
		t.Fatalf("run: %v", err)
	}
	s.SetPaired(true)
	if _, err := s.RunCode("print(2)", "python"); err != nil {
		t.Fatalf("run: %v", err)
	}
	s.SetPaired(false)
	if _, err := s.RunCode("print(3)", "python"); err != nil {
		t.Fatalf("run: %v", err)
	}

	modes := []string{sender.sent[0].Mode, sender.sent[1].Mode, sender.sent[2].Mode}
	want := []string{ModeVirtual, ModeLocal, ModeVirtual}
	for i := range want {
		if modes[i] != want[i] {
			t.Errorf("run %d mode = %q, want %q", i, modes[i], want[i])
		}
	}
	if sender.sent[0].SessionID != "s1" || sender.sent[0].ProjectID != "p1" {
		t.Errorf("envelope = %+v, want focus ids stamped", sender.sent[0])
	}
}

func TestPairRejectsShortCodeLocally(t *testing.T) {
	relay := &fakeRelay{}
	s := newTestSelector(&fakeSender{}, relay, &fakeDialer{}, "tok")

	if err := s.Pair(context.Background(), "AB12"); !errors.Is(err, ErrBadPairCode) {
		t.Fatalf("err = %v, want ErrBadPairCode", err)
	}
	if relay.pairCalls != 0 {
		t.Errorf("network call made for a bad-length code")
	}
	if s.Paired() {
		t.Error("paired flipped on failure")
	}
}

func TestPairRequiresToken(t *testing.T) {
	relay := &fakeRelay{}
	s := newTestSelector(&fakeSender{}, relay, &fakeDialer{}, "")

	if err := s.Pair(context.Background(), "ABC123"); !errors.Is(err, api.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if relay.pairCalls != 0 {
		t.Errorf("network call made without a token")
	}
}

func TestPairSurfacesServerReason(t *testing.T) {
	relay := &fakeRelay{pairErr: &api.RequestError{Status: 400, Detail: "Invalid or expired pairing code"}}
	s := newTestSelector(&fakeSender{}, relay, &fakeDialer{}, "tok")

	err := s.Pair(context.Background(), "ABC123")
	if err == nil || err.Error() != "Invalid or expired pairing code" {
		t.Fatalf("err = %v, want server detail verbatim", err)
	}
	if s.Paired() {
		t.Error("paired flipped on rejection")
	}

	relay.pairErr = nil
	if err := s.Pair(context.Background(), "ABC123"); err != nil {
		t.Fatalf("pair: %v", err)
	}
	if !s.Paired() {
		t.Error("paired not flipped on success")
	}
}

func TestStartCloudSessionReusesRunningSandbox(t *testing.T) {
	relay := &fakeRelay{
		sandboxes:   []api.Sandbox{{ID: "vm-stopped", Status: "stopped"}, {ID: "vm-1", Status: "running"}},
		connectedAt: 1,
	}
	dialer := &fakeDialer{}
	s := newTestSelector(&fakeSender{}, relay, dialer, "tok")

	sb, err := s.StartCloudSession(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sb.ID != "vm-1" {
		t.Errorf("sandbox = %q, want running vm-1 reused", sb.ID)
	}
	if relay.createCalls != 0 {
		t.Errorf("provisioned a new sandbox despite a running one")
	}
	if dialer.connects != 1 || dialer.token != "tok" {
		t.Errorf("dialer connects = %d token = %q", dialer.connects, dialer.token)
	}
	if !s.Paired() {
		t.Error("attach confirmation must flip paired")
	}
}

func TestStartCloudSessionProvisionsWhenNoneRunning(t *testing.T) {
	relay := &fakeRelay{
		created:     &api.Sandbox{ID: "vm-new", Status: "provisioning"},
		connectedAt: 3,
	}
	s := newTestSelector(&fakeSender{}, relay, &fakeDialer{}, "tok")

	sb, err := s.StartCloudSession(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sb.ID != "vm-new" || relay.createCalls != 1 {
		t.Errorf("sandbox = %+v createCalls = %d", sb, relay.createCalls)
	}
	if relay.statusCalls != 3 {
		t.Errorf("status polls = %d, want 3", relay.statusCalls)
	}
}

func TestStartCloudSessionTimesOut(t *testing.T) {
	relay := &fakeRelay{created: &api.Sandbox{ID: "vm-new"}}
	dialer := &fakeDialer{}
	s := newTestSelector(&fakeSender{}, relay, dialer, "tok")
	s.PollAttempts = 5

	_, err := s.StartCloudSession(context.Background())
	if !errors.Is(err, ErrProvisionTimeout) {
		t.Fatalf("err = %v, want ErrProvisionTimeout", err)
	}
	if relay.statusCalls != 5 {
		t.Errorf("status polls = %d, want 5", relay.statusCalls)
	}
	if dialer.connects != 0 {
		t.Error("connected despite timeout")
	}
	if s.Paired() {
		t.Error("paired flipped despite timeout")
	}
}

func TestStartCloudSessionProvisionFailureAborts(t *testing.T) {
	relay := &fakeRelay{createErr: &api.RequestError{Status: 500, Detail: "capacity"}}
	s := newTestSelector(&fakeSender{}, relay, &fakeDialer{}, "tok")

	_, err := s.StartCloudSession(context.Background())
	if err == nil {
		t.Fatal("expected provisioning failure")
	}
	if relay.statusCalls != 0 {
		t.Errorf("polled status after a failed provision")
	}
}
