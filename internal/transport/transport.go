// internal/transport/transport.go
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

var (
	// ErrClosed is returned by operations on a closed transport.
	ErrClosed = errors.New("transport closed")
	// ErrNotHost is returned when a non-host endpoint tries to broadcast state.
	ErrNotHost = errors.New("only the host may broadcast")
)

// Kind tells a receiver how to decode a Message payload.
type Kind string

const (
	KindAction   Kind = "action"
	KindState    Kind = "state"
	KindError    Kind = "error"
	KindRoomList Kind = "roomList"
	KindReady    Kind = "ready"
)

// Message is one delivery. From is uuid.Nil when the sender is a relay server rather than a peer.
type Message struct {
	From    uuid.UUID
	Kind    Kind
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Transport is the only thing a session knows about the network. Delivery is fire-and-forget:
// no acknowledgements, no retries and no ordering across peers.
type Transport interface {
	// LocalID is the player this endpoint speaks for.
	LocalID() uuid.UUID
	// IsHost reports whether this endpoint holds the authoritative state.
	IsHost() bool
	// Send delivers an action toward the host.
	Send(ctx context.Context, action models.Action) error
	// Broadcast delivers a full state snapshot from the host to every peer.
	Broadcast(ctx context.Context, st models.GameState) error

	OnMessage(fn func(Message))
	OnPeerConnected(fn func(models.PlayerSnapshot))
	OnPeerDisconnected(fn func(uuid.UUID))

	Close() error
}

// handlers holds the callbacks shared by every implementation.
type handlers struct {
	message      func(Message)
	connected    func(models.PlayerSnapshot)
	disconnected func(uuid.UUID)
}

func (h handlers) emitMessage(m Message) {
	if h.message != nil {
		h.message(m)
	}
}

func (h handlers) emitConnected(p models.PlayerSnapshot) {
	if h.connected != nil {
		h.connected(p)
	}
}

func (h handlers) emitDisconnected(id uuid.UUID) {
	if h.disconnected != nil {
		h.disconnected(id)
	}
}
