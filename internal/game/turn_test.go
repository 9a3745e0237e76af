package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/stretchr/testify/assert"
)

func seats(n int) []models.Player {
	players := make([]models.Player, n)
	for i := range players {
		players[i] = models.Player{ID: uuid.New()}
	}
	return players
}

func TestAdvanceTurn(t *testing.T) {
	cases := []struct {
		name      string
		players   int
		start     int
		clockwise bool
		skips     int
		want      int
	}{
		{"next clockwise", 3, 0, true, 0, 1},
		{"wraps clockwise", 3, 2, true, 0, 0},
		{"next counter-clockwise", 3, 0, false, 0, 2},
		{"skip one", 4, 1, true, 1, 3},
		{"skip counter-clockwise", 4, 1, false, 1, 3},
		{"skips larger than table", 3, 0, true, 5, 0},
		{"two player reverse-as-skip", 2, 0, false, 1, 0},
		{"no players", 0, 0, true, 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := models.GameState{Players: seats(tc.players), TurnIndex: tc.start, Clockwise: tc.clockwise}
			advanceTurn(&st, tc.skips)
			assert.Equal(t, tc.want, st.TurnIndex)
		})
	}
}

func TestAdjustIndexAfterRemoval(t *testing.T) {
	cases := []struct {
		name    string
		after   int
		turn    int
		removed int
		want    int
	}{
		{"removed before current", 3, 2, 0, 1},
		{"removed after current", 3, 1, 2, 1},
		{"current removed keeps seat", 3, 1, 1, 1},
		{"current removed at end wraps", 2, 2, 2, 0},
		{"empty table", 0, 1, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := models.GameState{Players: seats(tc.after), TurnIndex: tc.turn}
			adjustIndexAfterRemoval(&st, tc.removed)
			assert.Equal(t, tc.want, st.TurnIndex)
		})
	}
}
