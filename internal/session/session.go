// internal/session/session.go
package session

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/game"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/jason-s-yu/crazyeights/internal/transport"
	"github.com/sirupsen/logrus"
)

// Session keeps one peer's copy of the game in step with the host.
//
// On the host the copy is authoritative: actions from peers are reduced and the result is
// broadcast. On a guest the copy is only a latency hint: Act reduces locally as if it were the
// host, and every state broadcast overwrites the copy without any merge.
type Session struct {
	engine *game.Engine
	tr     transport.Transport
	self   models.PlayerSnapshot
	log    logrus.FieldLogger

	// order is held by the host from applying a change until its snapshot is broadcast, so
	// snapshots go out in the order they were produced.
	order sync.Mutex

	mu       sync.Mutex
	state    models.GameState
	onChange func(models.GameState)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithSettings sets the room settings a host session starts with.
func WithSettings(cfg models.Settings) Option {
	return func(s *Session) { s.state.Config = cfg.Normalized() }
}

// New wires a session to tr. A host session seats self right away; a guest starts empty and
// waits for the host's first broadcast.
func New(engine *game.Engine, tr transport.Transport, self models.PlayerSnapshot, opts ...Option) *Session {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	s := &Session{
		engine: engine,
		tr:     tr,
		self:   self,
		log:    quiet,
		state:  models.NewGameState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(logrus.Fields{"player": self.ID, "host": tr.IsHost()})
	if tr.IsHost() {
		s.state.HostID = self.ID
		s.state = engine.Seat(s.state, self)
	}

	tr.OnMessage(s.handleMessage)
	tr.OnPeerConnected(s.handleConnected)
	tr.OnPeerDisconnected(s.handleDisconnected)
	return s
}

// State returns a copy of the local state.
func (s *Session) State() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// OnChange registers fn to run after every local state change. It runs without the session lock.
func (s *Session) OnChange(fn func(models.GameState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Act performs an action for this peer. The host applies and broadcasts it; a guest applies it
// optimistically and sends it to the host.
func (s *Session) Act(ctx context.Context, a models.Action) error {
	if s.tr.IsHost() {
		s.order.Lock()
		defer s.order.Unlock()
		s.apply(a)
		return s.broadcast(ctx)
	}
	s.update(func(st models.GameState) models.GameState {
		return s.engine.Reduce(st, a, true)
	})
	return s.tr.Send(ctx, a)
}

func (s *Session) handleMessage(msg transport.Message) {
	switch msg.Kind {
	case transport.KindAction:
		if !s.tr.IsHost() {
			return
		}
		var a models.Action
		if err := msg.Decode(&a); err != nil {
			s.log.WithError(err).Debug("dropping undecodable action")
			return
		}
		s.order.Lock()
		defer s.order.Unlock()
		if !s.authorized(msg.From, a) {
			s.log.WithFields(logrus.Fields{"from": msg.From, "action": a.Type}).Debug("dropping unauthorized action")
		} else {
			s.apply(a)
		}
		// Broadcast either way so a rejected sender drops its optimistic copy.
		s.broadcastLogged()
	case transport.KindState:
		if s.tr.IsHost() {
			return
		}
		var st models.GameState
		if err := msg.Decode(&st); err != nil {
			s.log.WithError(err).Debug("dropping undecodable state")
			return
		}
		s.update(func(models.GameState) models.GameState { return st })
	}
}

// authorized rejects actions that name a player other than their sender, and host-only actions
// from anyone but the host.
func (s *Session) authorized(from uuid.UUID, a models.Action) bool {
	switch a.Type {
	case models.ActionStartRound, models.ActionUpdateSettings:
		return from == s.self.ID
	}
	return a.PlayerID == from
}

func (s *Session) handleConnected(p models.PlayerSnapshot) {
	if !s.tr.IsHost() {
		return
	}
	s.order.Lock()
	defer s.order.Unlock()
	s.update(func(st models.GameState) models.GameState {
		if st.Started && !st.Config.AllowJoinInProgress {
			return st
		}
		return s.engine.Seat(st, p)
	})
	s.broadcastLogged()
}

func (s *Session) handleDisconnected(id uuid.UUID) {
	leave := models.Action{Type: models.ActionLeave, PlayerID: id}
	isHost := s.tr.IsHost()
	if isHost {
		s.order.Lock()
		defer s.order.Unlock()
	}
	// On a guest this only has an effect when the host itself left.
	s.update(func(st models.GameState) models.GameState {
		return s.engine.Reduce(st, leave, isHost)
	})
	if isHost {
		s.broadcastLogged()
	}
}

func (s *Session) apply(a models.Action) {
	s.update(func(st models.GameState) models.GameState {
		return s.engine.Reduce(st, a, true)
	})
}

// update swaps the state under the lock and notifies outside it.
func (s *Session) update(fn func(models.GameState) models.GameState) {
	s.mu.Lock()
	s.state = fn(s.state)
	st := s.state.Clone()
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb(st)
	}
}

func (s *Session) broadcast(ctx context.Context) error {
	return s.tr.Broadcast(ctx, s.State())
}

func (s *Session) broadcastLogged() {
	if err := s.broadcast(context.Background()); err != nil {
		s.log.WithError(err).Warn("state broadcast failed")
	}
}
