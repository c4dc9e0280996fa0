// Package ws is the subscriber side of the gateway: a WebSocket server
// accepting any number of text-message connections, a hub fanning
// outbound envelopes to all of them, and a per-connection session
// answering small JSON requests.
package ws

import (
	"sync"

	"github.com/mavgate/mavgate/log2"
)

// Conn is one subscriber as the hub sees it. Send must be safe for
// concurrent use (broadcasts and session replies share a connection).
type Conn interface {
	Send(payload []byte) error
	Close() error
	String() string
}

// Hub owns the live subscriber set.
// Membership contract:
// - a conn is present iff it is open and has not yet failed a send
// - removal is idempotent, by the hub on send failure or by the
//   session on connection end, whichever happens first
type Hub struct {
	log *log2.Log
	mu  sync.Mutex
	set map[Conn]struct{}
}

func NewHub(log *log2.Log) *Hub {
	return &Hub{log: log, set: make(map[Conn]struct{})}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	h.set[c] = struct{}{}
	n := len(h.set)
	h.mu.Unlock()
	h.log.Infof("subscriber connected %s total=%d", c.String(), n)
}

func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	_, present := h.set[c]
	delete(h.set, c)
	n := len(h.set)
	h.mu.Unlock()
	if present {
		h.log.Infof("subscriber disconnected %s total=%d", c.String(), n)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.set)
}

// Broadcast attempts delivery of an already-serialized envelope to
// every current subscriber. Failed subscribers are collected during
// the pass and removed in one step after it; their failure never
// reaches the ingestion path.
func (h *Hub) Broadcast(msgType string, payload []byte) {
	h.mu.Lock()
	if len(h.set) == 0 {
		h.mu.Unlock()
		return
	}
	conns := make([]Conn, 0, len(h.set))
	for c := range h.set {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	var failed []Conn
	for _, c := range conns {
		if err := c.Send(payload); err != nil {
			h.log.Errorf("broadcast type=%s to=%s err=%v", msgType, c.String(), err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.Unregister(c)
		_ = c.Close()
	}
}

// CloseAll force-closes every subscriber, used on process shutdown to
// unblock session read loops.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.set))
	for c := range h.set {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}
