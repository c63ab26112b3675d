// Package session tracks which chat session and project the client is
// focused on, mirrors the relay's project list, and keeps a per-project
// chat-list cache for the sidebar.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vibewithgary/gary/internal/api"
	"github.com/vibewithgary/gary/internal/state"
	"github.com/vibewithgary/gary/internal/ws"
)

const defaultRefreshDelay = 300 * time.Millisecond

// Sender transmits outbound envelopes. Satisfied by ws.Router.
type Sender interface {
	Send(v any) error
}

// Relay is the slice of the HTTP API the session context needs.
type Relay interface {
	ProjectChats(ctx context.Context, projectID string) ([]api.ChatSummary, error)
}

// Session is the chat the client is currently talking in.
type Session struct {
	ID        string
	Title     string
	UpdatedAt float64
}

// Context reconciles server-pushed session and project updates with
// local focus state. The relay owns the data; Context owns which slice
// of it the user is looking at.
type Context struct {
	RefreshDelay time.Duration

	// OnSidebar receives the refreshed chat list for a project.
	OnSidebar func(projectID string, chats []api.ChatSummary)
	// OnConversationCleared fires when the visible conversation must
	// be discarded (project switch, new session).
	OnConversationCleared func()
	// OnTranscript receives a loaded session's message history.
	OnTranscript func(messages []ws.TranscriptMessage)

	sender Sender
	relay  Relay
	mirror *state.Store // optional; nil skips durable mirroring

	mu       sync.Mutex
	current  *Session
	project  *api.Project
	projects []api.Project
	cache    map[string][]api.ChatSummary
	refresh  *time.Timer
}

func NewContext(sender Sender, relay Relay, mirror *state.Store) *Context {
	return &Context{
		RefreshDelay: defaultRefreshDelay,
		sender:       sender,
		relay:        relay,
		mirror:       mirror,
		cache:        make(map[string][]api.ChatSummary),
	}
}

// SetProjects replaces the local project mirror. The relay is the
// source of truth; this is called after each project list fetch.
func (c *Context) SetProjects(projects []api.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = projects
	if c.project != nil {
		if p := findProject(projects, c.project.ID); p != nil {
			c.project = p
		} else {
			c.project = nil
		}
	}
}

// Current returns the focused session, or nil.
func (c *Context) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// CurrentProject returns the focused project, or nil.
func (c *Context) CurrentProject() *api.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.project == nil {
		return nil
	}
	p := *c.project
	return &p
}

// HandleMessage adopts the session carried by an inbound chat message.
// When the message belongs to a session other than the focused one the
// context switches to it and schedules a sidebar refresh, leaving the
// rendered conversation alone so the reply stays visible.
func (c *Context) HandleMessage(msg *ws.MessageIn) {
	c.mu.Lock()
	if msg.ProjectID != "" {
		if p := findProject(c.projects, msg.ProjectID); p != nil {
			c.project = p
		}
	}
	if msg.SessionID == "" || (c.current != nil && c.current.ID == msg.SessionID) {
		c.mu.Unlock()
		return
	}
	title := msg.SessionTitle
	if title == "" {
		title = "New Chat"
	}
	c.current = &Session{ID: msg.SessionID, Title: title, UpdatedAt: float64(time.Now().Unix())}
	projectID := ""
	if c.project != nil {
		projectID = c.project.ID
	}
	c.scheduleRefreshLocked(projectID)
	c.mu.Unlock()
}

// HandleProjectID resolves a server-pushed project id against the
// mirror. Unknown ids are ignored as stale pushes.
func (c *Context) HandleProjectID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := findProject(c.projects, id); p != nil {
		c.project = p
	}
}

// HandleSessionLoaded forwards a loaded transcript to the presenter.
func (c *Context) HandleSessionLoaded(loaded *ws.SessionLoaded) {
	if c.OnTranscript != nil {
		c.OnTranscript(loaded.Messages)
	}
}

// SelectProject focuses a project. With clearMessages the conversation
// view is discarded and the relay is told via set_project; without it
// the chat list is refreshed silently and the active conversation and
// relay-side focus are untouched.
func (c *Context) SelectProject(id string, clearMessages bool) error {
	c.mu.Lock()
	p := findProject(c.projects, id)
	if p == nil {
		c.mu.Unlock()
		return nil
	}
	if !clearMessages {
		c.mu.Unlock()
		c.refreshProject(id)
		return nil
	}
	c.project = p
	c.current = nil
	chats, cached := c.cache[id]
	c.mu.Unlock()

	if !cached {
		var err error
		chats, err = c.fetchChats(id)
		if err != nil {
			return err
		}
	}
	if c.OnConversationCleared != nil {
		c.OnConversationCleared()
	}
	if c.OnSidebar != nil {
		c.OnSidebar(id, chats)
	}
	return c.sender.Send(&ws.SetProject{Type: ws.TypeSetProject, ProjectID: id})
}

// SelectSession focuses an existing session and asks the relay for its
// transcript, which arrives as a session_loaded push.
func (c *Context) SelectSession(id, title string) error {
	c.mu.Lock()
	c.current = &Session{ID: id, Title: title}
	c.mu.Unlock()
	return c.sender.Send(&ws.SetSession{Type: ws.TypeSetSession, SessionID: id})
}

// NewSession clears the focused session optimistically and tells the
// relay to start a fresh one. The relay's first message push carries
// the replacement session id.
func (c *Context) NewSession() error {
	c.mu.Lock()
	c.current = nil
	projectID := ""
	if c.project != nil {
		projectID = c.project.ID
	}
	c.mu.Unlock()
	if c.OnConversationCleared != nil {
		c.OnConversationCleared()
	}
	return c.sender.Send(&ws.NewSession{Type: ws.TypeNewSession, ProjectID: projectID})
}

// Chats returns the cached chat list for a project, fetching on miss.
func (c *Context) Chats(projectID string) ([]api.ChatSummary, error) {
	c.mu.Lock()
	chats, ok := c.cache[projectID]
	c.mu.Unlock()
	if ok {
		return chats, nil
	}
	return c.fetchChats(projectID)
}

// PrefetchAll warms the chat-list cache for every mirrored project in
// the background so project switches render instantly.
func (c *Context) PrefetchAll() {
	c.mu.Lock()
	var missing []string
	for _, p := range c.projects {
		if _, ok := c.cache[p.ID]; !ok {
			missing = append(missing, p.ID)
		}
	}
	c.mu.Unlock()
	go func() {
		for _, id := range missing {
			if _, err := c.fetchChats(id); err != nil {
				slog.Debug("prefetch chats failed", "project", id, "error", err)
			}
		}
	}()
}

// scheduleRefreshLocked arms the debounced sidebar refresh. A newly
// scheduled refresh supersedes an unexecuted prior one.
func (c *Context) scheduleRefreshLocked(projectID string) {
	if c.refresh != nil {
		c.refresh.Stop()
	}
	c.refresh = time.AfterFunc(c.RefreshDelay, func() {
		c.refreshProject(projectID)
	})
}

// refreshProject re-fetches a project's chat list, replacing whatever
// the cache held.
func (c *Context) refreshProject(projectID string) {
	if projectID == "" {
		return
	}
	if _, err := c.fetchChats(projectID); err != nil {
		slog.Debug("sidebar refresh failed", "project", projectID, "error", err)
	}
}

func (c *Context) fetchChats(projectID string) ([]api.ChatSummary, error) {
	chats, err := c.relay.ProjectChats(context.Background(), projectID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache[projectID] = chats
	c.mu.Unlock()
	if c.mirror != nil {
		for _, ch := range chats {
			err := c.mirror.UpsertSession(&state.Session{
				ID: ch.ID, ProjectID: projectID, Title: ch.Title, UpdatedAt: ch.UpdatedAt,
			})
			if err != nil {
				slog.Debug("mirror session failed", "session", ch.ID, "error", err)
			}
		}
	}
	if c.OnSidebar != nil {
		c.OnSidebar(projectID, chats)
	}
	return chats, nil
}

func findProject(projects []api.Project, id string) *api.Project {
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i]
		}
	}
	return nil
}
