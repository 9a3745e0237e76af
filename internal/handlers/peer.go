// internal/handlers/peer.go
package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/room"
)

// outBuffer is how many server messages may queue for a socket before it is dropped.
const outBuffer = 32

// connPeer is the room.Peer for one WebSocket. Sends never block the room manager: a full buffer
// marks the peer closed and cancels its pumps.
type connPeer struct {
	playerID uuid.UUID
	out      chan room.ServerMessage
	cancel   context.CancelFunc

	mu       sync.Mutex
	closed   bool
	overflow bool
}

func newConnPeer(playerID uuid.UUID, cancel context.CancelFunc) *connPeer {
	return &connPeer{
		playerID: playerID,
		out:      make(chan room.ServerMessage, outBuffer),
		cancel:   cancel,
	}
}

func (p *connPeer) Send(msg room.ServerMessage) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.out <- msg:
		return true
	default:
		p.closed = true
		p.overflow = true
		p.cancel()
		return false
	}
}

func (p *connPeer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *connPeer) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
}

func (p *connPeer) overflowed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overflow
}
