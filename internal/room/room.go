// internal/room/room.go
package room

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// Peer is the outbound half of one client connection. Send must not block: implementations queue
// the message or drop it and report false.
type Peer interface {
	Send(msg ServerMessage) bool
	Closed() bool
}

type member struct {
	player models.PlayerSnapshot
	peer   Peer
}

// Room is one game table. Every field is guarded by the Manager's lock.
type Room struct {
	// ID distinguishes this room from earlier rooms that used the same code.
	ID       uuid.UUID
	Code     string
	IsPublic bool

	passcodeHash string
	members      map[uuid.UUID]*member
	order        []uuid.UUID // join order, used when rebuilding the roster
	ready        map[uuid.UUID]bool
	state        models.GameState
	actionIndex  int
}

func newRoom(code string, host models.PlayerSnapshot, peer Peer, isPublic bool, hash string, settings models.Settings) *Room {
	st := models.NewGameState()
	st.HostID = host.ID
	st.Config = settings.Normalized()
	r := &Room{
		ID:           uuid.New(),
		Code:         code,
		IsPublic:     isPublic,
		passcodeHash: hash,
		members:      make(map[uuid.UUID]*member),
		ready:        make(map[uuid.UUID]bool),
		state:        st,
	}
	r.addMember(host, peer)
	r.rebuildRoster(0)
	return r
}

// addMember connects p, replacing any previous connection of the same player.
func (r *Room) addMember(p models.PlayerSnapshot, peer Peer) {
	if m, ok := r.members[p.ID]; ok {
		m.peer = peer
		if p.Name != "" {
			m.player.Name = p.Name
		}
		return
	}
	r.members[p.ID] = &member{player: p, peer: peer}
	r.order = append(r.order, p.ID)
}

func (r *Room) removeMember(id uuid.UUID) {
	delete(r.members, id)
	delete(r.ready, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// isMember reports whether id is connected through peer.
func (r *Room) isMember(id uuid.UUID, peer Peer) bool {
	m, ok := r.members[id]
	return ok && m.peer == peer
}

func (r *Room) snapshots() []models.PlayerSnapshot {
	out := make([]models.PlayerSnapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id].player)
	}
	return out
}

// rebuildRoster makes the seated players match the connected members while no round is running.
// Seats that survive keep their hands. With maxSeats > 0 later members beyond it spectate.
func (r *Room) rebuildRoster(maxSeats int) {
	if r.state.Started {
		return
	}
	next := r.state.Clone()
	seated := make(map[uuid.UUID]models.Player, len(next.Players))
	for _, p := range next.Players {
		seated[p.ID] = p
	}
	next.Players = make([]models.Player, 0, len(r.order))
	for _, id := range r.order {
		if maxSeats > 0 && len(next.Players) == maxSeats {
			break
		}
		m := r.members[id]
		p, ok := seated[id]
		if !ok {
			p = models.Player{ID: id, Hand: []models.Card{}}
		}
		p.Name = m.player.Name
		next.Players = append(next.Players, p)
	}
	if !next.HasPlayer(next.HostID) && len(next.Players) > 0 {
		next.HostID = next.Players[0].ID
	}
	if next.TurnIndex >= len(next.Players) {
		next.TurnIndex = 0
	}
	r.state = next
}

func (r *Room) readyIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.ready))
	for _, id := range r.order {
		if r.ready[id] {
			out = append(out, id)
		}
	}
	return out
}

func (r *Room) summary() models.RoomSummary {
	s := models.RoomSummary{
		Code:        r.Code,
		HostID:      r.state.HostID,
		PlayerCount: len(r.members),
		Started:     r.state.Started,
		JoinAllowed: !r.state.Started || r.state.Config.AllowJoinInProgress,
	}
	if m, ok := r.members[r.state.HostID]; ok {
		s.HostName = m.player.Name
	}
	return s
}

// broadcast sends msg to every member and returns the members whose connection has closed.
func (r *Room) broadcast(msg ServerMessage) []uuid.UUID {
	var closed []uuid.UUID
	for _, id := range r.order {
		m := r.members[id]
		if m.peer.Closed() {
			closed = append(closed, id)
			continue
		}
		m.peer.Send(msg)
	}
	return closed
}

func (r *Room) send(id uuid.UUID, msg ServerMessage) {
	if m, ok := r.members[id]; ok && !m.peer.Closed() {
		m.peer.Send(msg)
	}
}
