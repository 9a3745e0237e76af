// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is a seat in the round. Hand is only ever mutated by the game engine.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []Card    `json:"hand"`
}

// PlayerSnapshot is what a client sends about itself when creating or joining a room.
type PlayerSnapshot struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
