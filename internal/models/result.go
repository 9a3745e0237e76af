// internal/models/result.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultPlayer is one seat's standing at the end of a round.
type ResultPlayer struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	HandSize int       `json:"handSize"`
}

// RoundResult is emitted once per finished round and persisted by the historian. RoundID is the
// idempotency key: replaying the same result credits the winner only once.
type RoundResult struct {
	RoundID  uuid.UUID      `json:"round_id"`
	RoomCode string         `json:"room_code"`
	WinnerID uuid.UUID      `json:"winner_id"`
	Players  []ResultPlayer `json:"players"`
	EndedAt  time.Time      `json:"ended_at"`
}

// NewRoundResult summarizes a state that has a winner. ok is false when nobody has won yet.
func NewRoundResult(code string, st GameState, at time.Time) (RoundResult, bool) {
	if st.WinnerID == nil {
		return RoundResult{}, false
	}
	res := RoundResult{
		RoundID:  st.RoundID,
		RoomCode: code,
		WinnerID: *st.WinnerID,
		Players:  make([]ResultPlayer, 0, len(st.Players)),
		EndedAt:  at.UTC(),
	}
	for _, p := range st.Players {
		res.Players = append(res.Players, ResultPlayer{ID: p.ID, Name: p.Name, HandSize: len(p.Hand)})
	}
	return res, true
}

// ActionRecord holds the minimal info the historian keeps about one accepted action.
// RoomID identifies the room instance, since codes are reused once a room closes.
type ActionRecord struct {
	RoomID      uuid.UUID  `json:"room_id"`
	RoomCode    string     `json:"room_code"`
	RoundID     uuid.UUID  `json:"round_id"`
	ActionIndex int        `json:"action_index"`
	ActorID     uuid.UUID  `json:"actor_id"`
	ActionType  ActionType `json:"action_type"`
	Payload     Action     `json:"action_payload"`
	Timestamp   int64      `json:"timestamp"`
}
