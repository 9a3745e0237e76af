// internal/models/action.go
package models

import "github.com/google/uuid"

// ActionType names a player or host intent handled by the game engine.
type ActionType string

const (
	ActionStartRound      ActionType = "startRound"
	ActionUpdateSettings  ActionType = "updateSettings"
	ActionIntentDraw      ActionType = "intentDraw"
	ActionIntentPlay      ActionType = "intentPlay"
	ActionCallUno         ActionType = "callUno"
	ActionBlindPlayRandom ActionType = "blindPlayRandom"
	ActionSwapHand        ActionType = "swapHand"
	ActionLeave           ActionType = "leave"
)

// Action is the serializable intent a peer sends toward the host. Only the fields relevant to
// Type are read.
type Action struct {
	Type        ActionType `json:"type"`
	PlayerID    uuid.UUID  `json:"playerId,omitempty"`
	CardID      uuid.UUID  `json:"cardId,omitempty"`
	ChosenColor *Color     `json:"chosenColor,omitempty"`
	TargetID    *uuid.UUID `json:"targetId,omitempty"`
	Settings    *Settings  `json:"settings,omitempty"`
}

// CarriesPlayer reports whether the action names an acting player that must be seated.
func (a Action) CarriesPlayer() bool {
	switch a.Type {
	case ActionStartRound, ActionUpdateSettings:
		return false
	}
	return true
}

// Validate rejects actions with an unknown type or a missing required field.
func (a Action) Validate() bool {
	switch a.Type {
	case ActionStartRound:
		return true
	case ActionUpdateSettings:
		return a.Settings != nil
	case ActionIntentPlay:
		return a.PlayerID != uuid.Nil && a.CardID != uuid.Nil
	case ActionSwapHand:
		return a.PlayerID != uuid.Nil && a.TargetID != nil
	case ActionIntentDraw, ActionCallUno, ActionBlindPlayRandom, ActionLeave:
		return a.PlayerID != uuid.Nil
	}
	return false
}
