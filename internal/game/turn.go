// internal/game/turn.go
package game

import "github.com/jason-s-yu/crazyeights/internal/models"

// advanceTurn moves the turn 1+skips seats in the current direction.
func advanceTurn(st *models.GameState, skips int) {
	n := len(st.Players)
	if n == 0 {
		st.TurnIndex = 0
		return
	}
	steps := 1 + skips
	if !st.Clockwise {
		steps = -steps
	}
	st.TurnIndex = ((st.TurnIndex+steps%n)%n + n) % n
}

// adjustIndexAfterRemoval keeps TurnIndex on the same player after the seat at removed was
// deleted. When the current player was removed the turn passes to whoever now holds that seat,
// wrapping to seat 0 past the end.
func adjustIndexAfterRemoval(st *models.GameState, removed int) {
	n := len(st.Players)
	if n == 0 {
		st.TurnIndex = 0
		return
	}
	if removed < st.TurnIndex {
		st.TurnIndex--
	}
	if st.TurnIndex >= n || st.TurnIndex < 0 {
		st.TurnIndex = 0
	}
}
