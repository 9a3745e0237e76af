// internal/transport/hub.go
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// Hub is an in-process stand-in for a peer-to-peer session: one endpoint is the host and every
// other endpoint talks to it directly. Callbacks run synchronously on the sender's goroutine and
// never under the hub's lock, so a handler may send in turn.
type Hub struct {
	mu        sync.Mutex
	host      uuid.UUID
	endpoints map[uuid.UUID]*Endpoint
	order     []uuid.UUID
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{endpoints: make(map[uuid.UUID]*Endpoint)}
}

// Connect attaches a new endpoint for p. The first endpoint with host set becomes the host;
// connecting a second host fails. Every endpoint already attached is told about the newcomer.
func (h *Hub) Connect(p models.PlayerSnapshot, host bool) (*Endpoint, error) {
	h.mu.Lock()
	if _, ok := h.endpoints[p.ID]; ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("player %s already connected", p.ID)
	}
	if host && h.host != uuid.Nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("hub already has host %s", h.host)
	}
	ep := &Endpoint{hub: h, player: p, host: host}
	if host {
		h.host = p.ID
	}
	peers := h.snapshotLocked()
	h.endpoints[p.ID] = ep
	h.order = append(h.order, p.ID)
	h.mu.Unlock()

	for _, other := range peers {
		other.callbacks().emitConnected(p)
	}
	return ep, nil
}

func (h *Hub) snapshotLocked() []*Endpoint {
	out := make([]*Endpoint, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.endpoints[id])
	}
	return out
}

func (h *Hub) disconnect(id uuid.UUID) {
	h.mu.Lock()
	if _, ok := h.endpoints[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.endpoints, id)
	for i, o := range h.order {
		if o == id {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
	if h.host == id {
		h.host = uuid.Nil
	}
	peers := h.snapshotLocked()
	h.mu.Unlock()

	for _, other := range peers {
		other.callbacks().emitDisconnected(id)
	}
}

// Endpoint is one peer's view of a Hub.
type Endpoint struct {
	hub    *Hub
	player models.PlayerSnapshot
	host   bool

	mu     sync.Mutex
	h      handlers
	closed bool
}

var _ Transport = (*Endpoint)(nil)

func (e *Endpoint) LocalID() uuid.UUID { return e.player.ID }

func (e *Endpoint) IsHost() bool { return e.host }

func (e *Endpoint) callbacks() handlers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.h
}

func (e *Endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Send delivers action to the host endpoint, including when this endpoint is the host. With no
// host attached the action is silently lost.
func (e *Endpoint) Send(_ context.Context, action models.Action) error {
	if e.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	e.hub.mu.Lock()
	host, ok := e.hub.endpoints[e.hub.host]
	e.hub.mu.Unlock()
	if !ok {
		return nil
	}
	host.callbacks().emitMessage(Message{From: e.player.ID, Kind: KindAction, Payload: payload})
	return nil
}

// Broadcast delivers st to every other endpoint.
func (e *Endpoint) Broadcast(_ context.Context, st models.GameState) error {
	if e.isClosed() {
		return ErrClosed
	}
	if !e.host {
		return ErrNotHost
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	e.hub.mu.Lock()
	peers := e.hub.snapshotLocked()
	e.hub.mu.Unlock()
	for _, p := range peers {
		if p != e {
			p.callbacks().emitMessage(Message{From: e.player.ID, Kind: KindState, Payload: payload})
		}
	}
	return nil
}

func (e *Endpoint) OnMessage(fn func(Message)) {
	e.mu.Lock()
	e.h.message = fn
	e.mu.Unlock()
}

func (e *Endpoint) OnPeerConnected(fn func(models.PlayerSnapshot)) {
	e.mu.Lock()
	e.h.connected = fn
	e.mu.Unlock()
}

func (e *Endpoint) OnPeerDisconnected(fn func(uuid.UUID)) {
	e.mu.Lock()
	e.h.disconnected = fn
	e.mu.Unlock()
}

// Close detaches the endpoint; the remaining endpoints see a peer disconnect.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	e.hub.disconnect(e.player.ID)
	return nil
}
