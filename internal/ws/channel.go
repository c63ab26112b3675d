package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ErrNotConnected is returned by Send when no channel is open.
var ErrNotConnected = errors.New("relay channel not connected")

const (
	defaultReconnectDelay = 2 * time.Second
	defaultMaxAttempts    = 10
	writeTimeout          = 10 * time.Second
	maxFrameBytes         = 512 * 1024 // match relay limit
)

// State is the channel connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// TokenSaver persists the bearer token so it survives process restarts.
type TokenSaver interface {
	SaveToken(token string) error
}

// Channel owns the persistent WebSocket to the relay. It reconnects after
// unclean closures at a fixed delay, up to MaxAttempts times, then stays
// disconnected until Connect is called again. Frames are delivered to
// OnFrame from a single goroutine in arrival order; the handler must not
// block.
type Channel struct {
	URL            string        // e.g. "wss://api.vibewithgary.com/ws/client"
	ReconnectDelay time.Duration // fixed, no backoff (default 2s)
	MaxAttempts    int           // reconnect cap (default 10)
	Saver          TokenSaver    // optional; called on every successful open

	OnFrame func(data []byte)
	OnState func(state State)

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	token    string
	attempts int
	retry    *time.Timer
	gen      int // bumped by Connect/Close to invalidate stale dials and timers
}

// Connect stores the token and opens the channel. Any pending reconnect
// or live connection is abandoned first. The call returns immediately;
// progress is reported through OnState.
func (c *Channel) Connect(ctx context.Context, token string) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.token = token
	c.gen++
	gen := c.gen
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	if c.conn != nil {
		c.conn.CloseNow()
		c.conn = nil
	}
	changed := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	c.notify(changed, StateConnecting)

	go c.dial(ctx, gen)
}

// Close tears the channel down without scheduling a reconnect. The held
// token is cleared; callers that only want a reconnect should use Connect.
func (c *Channel) Close() {
	c.mu.Lock()
	c.token = ""
	c.gen++
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "bye")
		c.conn = nil
	}
	changed := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	c.notify(changed, StateDisconnected)
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of reconnects scheduled since the last
// successful open.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Token returns the held bearer token ("" after Close).
func (c *Channel) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Send marshals v and writes it as a single text frame. Sends are
// fire-and-forget; there is no acknowledgment beyond what the protocol
// itself carries.
func (c *Channel) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if conn == nil || state != StateConnected {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (c *Channel) dial(ctx context.Context, gen int) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	endpoint := c.URL + "?token=" + url.QueryEscape(token)
	conn, _, err := websocket.Dial(ctx, endpoint, nil)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if conn != nil {
			conn.CloseNow()
		}
		return
	}
	if err != nil {
		slog.Debug("relay dial failed", "err", err)
		changed := c.setStateLocked(StateDisconnected)
		c.scheduleRetryLocked(ctx, gen)
		c.mu.Unlock()
		c.notify(changed, StateDisconnected)
		return
	}

	conn.SetReadLimit(maxFrameBytes)
	c.conn = conn
	c.attempts = 0
	changed := c.setStateLocked(StateConnected)
	c.mu.Unlock()

	// Persist before anything downstream can schedule a reconnect that
	// relies on the stored value.
	if c.Saver != nil {
		if err := c.Saver.SaveToken(token); err != nil {
			slog.Warn("persist token", "err", err)
		}
	}
	c.notify(changed, StateConnected)

	c.readLoop(ctx, conn, gen)
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if c.OnFrame != nil {
			c.OnFrame(data)
		}
	}
	conn.CloseNow()

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	changed := c.setStateLocked(StateDisconnected)
	c.scheduleRetryLocked(ctx, gen)
	c.mu.Unlock()
	c.notify(changed, StateDisconnected)
}

// scheduleRetryLocked arms a single reconnect timer after a closure. Past
// the attempt cap it gives up silently; the caller-facing remedy is a
// manual Connect.
func (c *Channel) scheduleRetryLocked(ctx context.Context, gen int) {
	maxAttempts := c.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}
	if c.token == "" || c.attempts >= maxAttempts {
		return
	}
	c.attempts++
	delay := c.ReconnectDelay
	if delay == 0 {
		delay = defaultReconnectDelay
	}
	c.retry = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.retry = nil
		changed := c.setStateLocked(StateConnecting)
		c.mu.Unlock()
		c.notify(changed, StateConnecting)
		c.dial(ctx, gen)
	})
}

func (c *Channel) setStateLocked(s State) bool {
	if c.state == s {
		return false
	}
	c.state = s
	return true
}

func (c *Channel) notify(changed bool, s State) {
	if changed && c.OnState != nil {
		c.OnState(s)
	}
}
