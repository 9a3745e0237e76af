// internal/room/manager.go
package room

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/auth"
	"github.com/jason-s-yu/crazyeights/internal/game"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/sirupsen/logrus"
)

// ResultRecorder receives one RoundResult per finished round.
type ResultRecorder interface {
	RecordRound(ctx context.Context, res models.RoundResult) error
}

// ActionRecorder receives every action the engine accepted.
type ActionRecorder interface {
	RecordAction(ctx context.Context, rec models.ActionRecord) error
}

// Manager owns every room of this server. A single lock serializes all message handling, so each
// room's state is only ever written by one goroutine at a time and in arrival order. Nothing that
// performs I/O runs while the lock is held: recorders are called after it is released.
type Manager struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	engine *game.Engine
	log    logrus.FieldLogger

	results    ResultRecorder
	actions    ActionRecorder
	params     auth.Params
	maxPlayers int
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for room lifecycle and dropped messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

// WithResultRecorder publishes finished rounds to r.
func WithResultRecorder(r ResultRecorder) Option {
	return func(m *Manager) { m.results = r }
}

// WithActionRecorder publishes accepted actions to r.
func WithActionRecorder(r ActionRecorder) Option {
	return func(m *Manager) { m.actions = r }
}

// WithPasscodeParams overrides the argon2id cost used for private-room passcodes.
func WithPasscodeParams(p auth.Params) Option {
	return func(m *Manager) { m.params = p }
}

// WithMaxPlayers caps how many members are seated; the rest spectate. Zero means no cap.
func WithMaxPlayers(n int) Option {
	return func(m *Manager) { m.maxPlayers = n }
}

// NewManager creates an empty manager driving engine.
func NewManager(engine *game.Engine, opts ...Option) *Manager {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	m := &Manager{
		rooms:  make(map[string]*Room),
		engine: engine,
		log:    quiet,
		params: auth.RoomParams,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// pending collects records produced under the lock so they can be published after it.
type pending struct {
	results []models.RoundResult
	actions []models.ActionRecord
}

func (m *Manager) flush(p pending) {
	if len(p.results) == 0 && len(p.actions) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if m.actions != nil {
		for _, rec := range p.actions {
			if err := m.actions.RecordAction(ctx, rec); err != nil {
				m.log.WithError(err).WithField("room", rec.RoomCode).Warn("failed to record action")
			}
		}
	}
	if m.results != nil {
		for _, res := range p.results {
			if err := m.results.RecordRound(ctx, res); err != nil {
				m.log.WithError(err).WithField("room", res.RoomCode).Warn("failed to record round result")
			}
		}
	}
}

// Handle dispatches one decoded client message from peer. Failures that clients are told about
// come back as an error(message) reply; everything else is dropped silently.
func (m *Manager) Handle(peer Peer, msg ClientMessage) {
	var err error
	switch msg.Type {
	case MsgCreateRoom:
		err = m.Create(peer, msg.Code, *msg.Host, msg.IsPublic, msg.Passcode, msg.Settings)
	case MsgJoinRoom:
		err = m.Join(peer, msg.Code, *msg.Player, msg.Passcode)
	case MsgSendAction:
		m.Apply(peer, msg.Code, msg.PlayerID, *msg.Action)
	case MsgReadyUpdate:
		m.SetReady(peer, msg.Code, msg.PlayerID, msg.IsReady)
	case MsgUpdateRules:
		err = m.UpdateRules(peer, msg.Code, msg.PlayerID, msg.Rules)
	case MsgRequestRoomList:
		peer.Send(roomList(m.List()))
	}
	if err == nil {
		return
	}
	logger := m.log.WithFields(logrus.Fields{"room": msg.Code, "type": msg.Type}).WithError(err)
	if !IsClientError(err) {
		logger.Warn("failed to handle client message")
		return
	}
	logger.Debug("rejected client message")
	peer.Send(ErrorMessage(err.Error()))
}

// Create opens a room with host as its first member. Codes are unique; a taken code fails with
// ErrRoomExists. A non-empty passcode makes the room require it on join.
func (m *Manager) Create(peer Peer, code string, host models.PlayerSnapshot, isPublic bool, passcode string, settings *models.Settings) error {
	var hash string
	if passcode != "" {
		var err error
		if hash, err = auth.HashPasscode(passcode, m.params); err != nil {
			return fmt.Errorf("hash passcode: %w", err)
		}
	}
	cfg := models.DefaultSettings()
	if settings != nil {
		cfg = *settings
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[code]; exists {
		return fmt.Errorf("%w: %s", ErrRoomExists, code)
	}
	r := newRoom(code, host, peer, isPublic, hash, cfg)
	m.rooms[code] = r
	m.log.WithFields(logrus.Fields{"room": code, "player": host.ID, "public": isPublic}).Info("room created")

	peer.Send(roomJoined(code, r.snapshots(), r.state))
	peer.Send(readySnapshot(code, r.readyIDs()))
	return nil
}

// Join connects player to an existing room. Before the round starts the roster is rebuilt from
// connected members; during a round the player is seated only if join-in-progress is allowed and
// spectates otherwise.
func (m *Manager) Join(peer Peer, code string, player models.PlayerSnapshot, passcode string) error {
	m.mu.Lock()
	r, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	hash := r.passcodeHash
	m.mu.Unlock()

	if hash != "" {
		match, err := auth.VerifyPasscode(passcode, hash)
		if err != nil {
			return fmt.Errorf("verify passcode: %w", err)
		}
		if !match {
			return ErrBadPasscode
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// The room may have emptied while the passcode was checked.
	if r, ok = m.rooms[code]; !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}

	r.addMember(player, peer)
	switch {
	case !r.state.Started:
		r.rebuildRoster(m.maxPlayers)
	case r.state.Config.AllowJoinInProgress && m.hasFreeSeat(r):
		r.state = m.engine.Seat(r.state, player)
	}
	m.log.WithFields(logrus.Fields{"room": code, "player": player.ID}).Info("player joined room")

	peer.Send(roomJoined(code, r.snapshots(), r.state))
	peer.Send(readySnapshot(code, r.readyIDs()))
	m.broadcastState(r)
	return nil
}

// Apply runs action for playerID through the engine and broadcasts the result. The sender must be
// a connected member and an action naming a player must name the sender and a seated player.
// Starting a round and changing settings is reserved to the room host. It reports whether the
// engine accepted the action.
func (m *Manager) Apply(peer Peer, code string, playerID uuid.UUID, action models.Action) bool {
	var p pending
	defer func() { m.flush(p) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	logger := m.log.WithFields(logrus.Fields{"room": code, "player": playerID, "action": action.Type})
	r, ok := m.rooms[code]
	if !ok || !r.isMember(playerID, peer) {
		logger.Debug("dropping action from non-member")
		return false
	}
	if action.CarriesPlayer() && action.PlayerID != playerID {
		logger.Debug("dropping action naming another player")
		return false
	}

	switch action.Type {
	case models.ActionStartRound, models.ActionUpdateSettings:
		if playerID != r.state.HostID {
			logger.Debug("dropping host-only action")
			return false
		}
	}
	if action.Type == models.ActionStartRound && !r.state.Started {
		r.rebuildRoster(m.maxPlayers)
	}
	if action.CarriesPlayer() && !r.state.HasPlayer(action.PlayerID) {
		logger.Debug("dropping action for unseated player")
		return false
	}

	prev := r.state
	next, accepted := m.engine.Apply(prev, action)
	if !accepted {
		// Correct the sender's optimistic copy.
		r.send(playerID, stateUpdated(code, prev))
		return false
	}
	r.state = next

	p.actions = append(p.actions, models.ActionRecord{
		RoomID:      r.ID,
		RoomCode:    code,
		RoundID:     next.RoundID,
		ActionIndex: r.actionIndex,
		ActorID:     playerID,
		ActionType:  action.Type,
		Payload:     action,
		Timestamp:   m.now().UnixMilli(),
	})
	r.actionIndex++

	if prev.WinnerID == nil && next.WinnerID != nil {
		if res, ok := models.NewRoundResult(code, next, m.now()); ok {
			p.results = append(p.results, res)
			logger.WithField("winner", res.WinnerID).Info("round finished")
		}
	}
	if action.Type == models.ActionStartRound {
		r.ready = make(map[uuid.UUID]bool)
		r.broadcast(readySnapshot(code, r.readyIDs()))
	}
	m.broadcastState(r)
	return true
}

// SetReady records playerID's readiness and broadcasts the ready snapshot.
func (m *Manager) SetReady(peer Peer, code string, playerID uuid.UUID, ready bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok || !r.isMember(playerID, peer) {
		return false
	}
	if ready {
		r.ready[playerID] = true
	} else {
		delete(r.ready, playerID)
	}
	r.broadcast(readySnapshot(code, r.readyIDs()))
	return true
}

// UpdateRules merges a partial rules map into the room's current settings and applies the result
// as an updateSettings action from playerID. Only the host's update takes effect.
func (m *Manager) UpdateRules(peer Peer, code string, playerID uuid.UUID, rules map[string]interface{}) error {
	m.mu.Lock()
	r, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	if !r.isMember(playerID, peer) {
		m.mu.Unlock()
		return ErrNotMember
	}
	current := r.state.Config
	m.mu.Unlock()

	next, err := models.ParseSettings(rules, current)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	m.Apply(peer, code, playerID, models.Action{Type: models.ActionUpdateSettings, Settings: &next})
	return nil
}

// Disconnect removes peer from every room it joined. A seated player leaves the round; rooms left
// without members are torn down.
func (m *Manager) Disconnect(peer Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		touched := false
		for _, id := range append([]uuid.UUID(nil), r.order...) {
			if r.members[id].peer != peer {
				continue
			}
			m.removeLocked(r, id)
			touched = true
		}
		if !touched {
			continue
		}
		if len(r.members) == 0 {
			delete(m.rooms, code)
			m.log.WithField("room", code).Info("room closed")
			continue
		}
		r.broadcast(readySnapshot(code, r.readyIDs()))
		m.broadcastState(r)
	}
}

// removeLocked drops member id and vacates their seat.
func (m *Manager) removeLocked(r *Room, id uuid.UUID) {
	r.removeMember(id)
	m.log.WithFields(logrus.Fields{"room": r.Code, "player": id}).Info("player left room")
	if r.state.HasPlayer(id) {
		cfg := r.state.Config
		r.state = m.engine.Reduce(r.state, models.Action{Type: models.ActionLeave, PlayerID: id}, true)
		// The last seat leaving resets the round; the room keeps its rules for whoever remains.
		r.state.Config = cfg
	}
	if len(r.members) > 0 && !r.state.HasPlayer(r.state.HostID) {
		r.rebuildRoster(m.maxPlayers)
	}
}

func (m *Manager) hasFreeSeat(r *Room) bool {
	return m.maxPlayers == 0 || len(r.state.Players) < m.maxPlayers
}

// broadcastState fans the current state out, pruning members whose connection closed. Pruning
// can change the state, so it repeats until a broadcast reaches only live peers.
func (m *Manager) broadcastState(r *Room) {
	for {
		closed := r.broadcast(stateUpdated(r.Code, r.state))
		if len(closed) == 0 {
			return
		}
		for _, id := range closed {
			m.removeLocked(r, id)
		}
		if len(r.members) == 0 {
			delete(m.rooms, r.Code)
			m.log.WithField("room", r.Code).Info("room closed")
			return
		}
	}
}

// List returns the public rooms ordered by code.
func (m *Manager) List() []models.RoomSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RoomSummary, 0, len(m.rooms))
	for _, r := range m.rooms {
		if r.IsPublic {
			out = append(out, r.summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// State returns a copy of the room's current state.
func (m *Manager) State(code string) (models.GameState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return models.GameState{}, false
	}
	return r.state.Clone(), true
}

// IsClientError reports whether err should be shown to the client as error(message).
func IsClientError(err error) bool {
	return errors.Is(err, ErrRoomExists) || errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrBadPasscode) ||
		errors.Is(err, ErrNotMember) || errors.Is(err, ErrInvalidRules)
}
