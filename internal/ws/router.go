package ws

import (
	"log/slog"
	"sync"
)

// Handler consumes the raw frame of one inbound envelope. Handlers run
// synchronously on the dispatch goroutine and must not block.
type Handler func(data []byte)

// Router serializes outbound envelopes onto a Channel and dispatches
// inbound frames by type tag. Unknown tags are dropped without error so
// old clients keep working against newer relays.
type Router struct {
	ch *Channel

	mu       sync.Mutex
	handlers map[string]Handler
}

// NewRouter wires a router to ch and installs itself as the frame sink.
func NewRouter(ch *Channel) *Router {
	r := &Router{
		ch:       ch,
		handlers: make(map[string]Handler),
	}
	ch.OnFrame = r.dispatch
	return r
}

// Handle registers the handler for a type tag. Each tag has exactly one
// handler; registering again replaces the previous one.
func (r *Router) Handle(tag string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tag] = h
}

// Send serializes v and transmits it. Returns ErrNotConnected when the
// channel is absent or not yet connected.
func (r *Router) Send(v any) error {
	return r.ch.Send(v)
}

// dispatch routes one inbound frame. Called from the channel's single
// read goroutine, so handlers observe envelopes strictly in arrival order
// with at most one dispatch in flight.
func (r *Router) dispatch(data []byte) {
	tag := Tag(data)
	if tag == "" {
		slog.Debug("dropping unparseable frame")
		return
	}
	r.mu.Lock()
	h := r.handlers[tag]
	r.mu.Unlock()
	if h == nil {
		slog.Debug("no handler for message type", "type", tag)
		return
	}
	h(data)
}
