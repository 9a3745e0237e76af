// internal/room/errors.go
package room

import "errors"

var (
	// ErrRoomExists is returned when creating a room whose code is taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when joining or addressing an unknown room code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrBadPasscode is returned when a private room is joined with the wrong passcode.
	ErrBadPasscode = errors.New("incorrect room passcode")
	// ErrNotMember is returned when a peer addresses a room it has not joined.
	ErrNotMember = errors.New("not a member of this room")
	// ErrInvalidRules is returned when a rules update carries a value of the wrong type.
	ErrInvalidRules = errors.New("invalid rules update")
)
