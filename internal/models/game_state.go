// internal/models/game_state.go
package models

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// BombEvent records the last bomb detonation so clients can animate it.
type BombEvent struct {
	TriggerID uuid.UUID   `json:"triggerId"`
	VictimIDs []uuid.UUID `json:"victimIds"`
	CardID    uuid.UUID   `json:"cardId"`
}

// ShotCallerDemand is one player's FIFO queue of forced colors. Entries are kept in insertion
// order so that re-electing an active target is deterministic.
type ShotCallerDemand struct {
	PlayerID uuid.UUID `json:"playerId"`
	Colors   []Color   `json:"colors"`
}

// GameState is the aggregate document for one room. Only the game engine mutates it; every
// non-host peer treats it as a read-only projection overwritten by each host broadcast.
type GameState struct {
	Players []Player  `json:"players"`
	HostID  uuid.UUID `json:"hostId"`
	RoundID uuid.UUID `json:"roundId"`

	TurnIndex int  `json:"turnIndex"`
	Clockwise bool `json:"clockwise"`
	Started   bool `json:"started"`

	DiscardPile []Card `json:"discardPile"`
	DrawPile    []Card `json:"drawPile"`

	PendingDraw     int    `json:"pendingDraw"`
	ChosenWildColor *Color `json:"chosenWildColor,omitempty"`

	UnoCalled map[uuid.UUID]bool `json:"unoCalled"`

	ShotCallerTargetID *uuid.UUID         `json:"shotCallerTargetId,omitempty"`
	ShotCallerDemands  []ShotCallerDemand `json:"shotCallerDemands"`

	BombCardID *uuid.UUID `json:"bombCardId,omitempty"`
	BombEvent  *BombEvent `json:"bombEvent,omitempty"`

	BlindedPlayerID       *uuid.UUID `json:"blindedPlayerId,omitempty"`
	BlindedTurnsRemaining int        `json:"blindedTurnsRemaining"`

	PendingSwapPlayerID *uuid.UUID `json:"pendingSwapPlayerId,omitempty"`

	WinnerID       *uuid.UUID `json:"winnerId,omitempty"`
	ResultCredited bool       `json:"resultCredited"`

	Config Settings `json:"config"`
}

// NewGameState returns the empty state a room is created with.
func NewGameState() GameState {
	return GameState{
		Players:     []Player{},
		Clockwise:   true,
		DiscardPile: []Card{},
		DrawPile:    []Card{},
		UnoCalled:   map[uuid.UUID]bool{},
		Config:      DefaultSettings(),
	}
}

// Clone returns a deep copy; the engine always works on a clone so callers keep their input.
func (s GameState) Clone() GameState {
	out := s
	out.Players = slices.Clone(s.Players)
	for i := range out.Players {
		out.Players[i].Hand = slices.Clone(s.Players[i].Hand)
	}
	out.DiscardPile = slices.Clone(s.DiscardPile)
	out.DrawPile = slices.Clone(s.DrawPile)
	out.UnoCalled = maps.Clone(s.UnoCalled)
	out.ShotCallerDemands = slices.Clone(s.ShotCallerDemands)
	for i := range out.ShotCallerDemands {
		out.ShotCallerDemands[i].Colors = slices.Clone(s.ShotCallerDemands[i].Colors)
	}
	out.ChosenWildColor = clonePtr(s.ChosenWildColor)
	out.ShotCallerTargetID = clonePtr(s.ShotCallerTargetID)
	out.BombCardID = clonePtr(s.BombCardID)
	out.BlindedPlayerID = clonePtr(s.BlindedPlayerID)
	out.PendingSwapPlayerID = clonePtr(s.PendingSwapPlayerID)
	out.WinnerID = clonePtr(s.WinnerID)
	if s.BombEvent != nil {
		ev := *s.BombEvent
		ev.VictimIDs = slices.Clone(s.BombEvent.VictimIDs)
		out.BombEvent = &ev
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// PlayerIndex returns the seat of id, or -1.
func (s *GameState) PlayerIndex(id uuid.UUID) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether id is seated.
func (s *GameState) HasPlayer(id uuid.UUID) bool {
	return s.PlayerIndex(id) >= 0
}

// CurrentPlayer returns the player whose turn it is, or nil when nobody is seated.
func (s *GameState) CurrentPlayer() *Player {
	if s.TurnIndex < 0 || s.TurnIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.TurnIndex]
}

// TopDiscard returns the top of the discard pile, or nil.
func (s *GameState) TopDiscard() *Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return &s.DiscardPile[len(s.DiscardPile)-1]
}

// CardCount is |drawPile| + |discardPile| + the sum of all hand sizes.
func (s *GameState) CardCount() int {
	n := len(s.DrawPile) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// IsBlinded reports whether id is the blinded player with turns remaining.
func (s *GameState) IsBlinded(id uuid.UUID) bool {
	return s.BlindedPlayerID != nil && *s.BlindedPlayerID == id && s.BlindedTurnsRemaining > 0
}
