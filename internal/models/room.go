// internal/models/room.go
package models

import "github.com/google/uuid"

// RoomSummary is one entry of the public room list.
type RoomSummary struct {
	Code        string    `json:"code"`
	HostID      uuid.UUID `json:"hostId"`
	HostName    string    `json:"hostName"`
	PlayerCount int       `json:"playerCount"`
	Started     bool      `json:"started"`
	JoinAllowed bool      `json:"joinAllowed"`
}
