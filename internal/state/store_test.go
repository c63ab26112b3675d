package state

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokenRoundtrip(t *testing.T) {
	s := openTestStore(t)

	tok, err := s.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok != "" {
		t.Errorf("fresh store token = %q, want empty", tok)
	}

	if err := s.SaveToken("abc123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	tok, err = s.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok != "abc123" {
		t.Errorf("token = %q, want %q", tok, "abc123")
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	tok, _ = s.Token()
	if tok != "" {
		t.Errorf("token after clear = %q, want empty", tok)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gary.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveToken("persisted"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := s.SetUsername("octocat"); err != nil {
		t.Fatalf("set username: %v", err)
	}
	if err := s.SetBroLevel(80); err != nil {
		t.Fatalf("set bro level: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	tok, _ := s.Token()
	if tok != "persisted" {
		t.Errorf("token = %q, want %q", tok, "persisted")
	}
	name, _ := s.Username()
	if name != "octocat" {
		t.Errorf("username = %q, want %q", name, "octocat")
	}
	level, _ := s.BroLevel()
	if level != 80 {
		t.Errorf("bro level = %d, want 80", level)
	}
}

func TestBroLevelClampAndDefault(t *testing.T) {
	s := openTestStore(t)

	level, err := s.BroLevel()
	if err != nil {
		t.Fatalf("bro level: %v", err)
	}
	if level != 50 {
		t.Errorf("default bro level = %d, want 50", level)
	}

	cases := []struct {
		in, want int
	}{
		{-10, 0},
		{0, 0},
		{100, 100},
		{250, 100},
	}
	for _, tc := range cases {
		if err := s.SetBroLevel(tc.in); err != nil {
			t.Fatalf("set %d: %v", tc.in, err)
		}
		got, _ := s.BroLevel()
		if got != tc.want {
			t.Errorf("set %d: got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSessionsMirror(t *testing.T) {
	s := openTestStore(t)

	for _, sess := range []*Session{
		{ID: "s1", ProjectID: "p1", Title: "first", UpdatedAt: 100},
		{ID: "s2", ProjectID: "p1", Title: "second", UpdatedAt: 200},
		{ID: "s3", ProjectID: "p2", Title: "other", UpdatedAt: 150},
	} {
		if err := s.UpsertSession(sess); err != nil {
			t.Fatalf("upsert %s: %v", sess.ID, err)
		}
	}

	got, err := s.SessionsForProject("p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2", len(got))
	}
	if got[0].ID != "s2" || got[1].ID != "s1" {
		t.Errorf("order = [%s %s], want newest first", got[0].ID, got[1].ID)
	}

	// Upsert with the same id updates in place.
	if err := s.UpsertSession(&Session{ID: "s1", ProjectID: "p1", Title: "renamed", UpdatedAt: 300}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = s.SessionsForProject("p1")
	if got[0].ID != "s1" || got[0].Title != "renamed" {
		t.Errorf("upsert did not update: %+v", got[0])
	}

	if err := s.DeleteSession("s2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = s.SessionsForProject("p1")
	if len(got) != 1 {
		t.Errorf("after delete got %d sessions, want 1", len(got))
	}
}
