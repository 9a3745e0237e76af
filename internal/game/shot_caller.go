// internal/game/shot_caller.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

func findDemand(st *models.GameState, playerID uuid.UUID) int {
	for i, d := range st.ShotCallerDemands {
		if d.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// addDemand queues color for target and makes target active if nobody is.
func addDemand(st *models.GameState, target uuid.UUID, color models.Color) {
	if i := findDemand(st, target); i >= 0 {
		st.ShotCallerDemands[i].Colors = append(st.ShotCallerDemands[i].Colors, color)
	} else {
		st.ShotCallerDemands = append(st.ShotCallerDemands, models.ShotCallerDemand{
			PlayerID: target,
			Colors:   []models.Color{color},
		})
	}
	if st.ShotCallerTargetID == nil {
		id := target
		st.ShotCallerTargetID = &id
		return
	}
	if i := findDemand(st, *st.ShotCallerTargetID); i < 0 || len(st.ShotCallerDemands[i].Colors) == 0 {
		reelectTarget(st)
	}
}

// popDemand consumes the front of playerID's queue after their turn.
func popDemand(st *models.GameState, playerID uuid.UUID) {
	i := findDemand(st, playerID)
	if i < 0 {
		return
	}
	colors := st.ShotCallerDemands[i].Colors
	if len(colors) > 0 {
		colors = colors[1:]
	}
	if len(colors) > 0 {
		st.ShotCallerDemands[i].Colors = colors
		return
	}
	st.ShotCallerDemands = append(st.ShotCallerDemands[:i], st.ShotCallerDemands[i+1:]...)
	if st.ShotCallerTargetID != nil && *st.ShotCallerTargetID == playerID {
		reelectTarget(st)
	}
}

// dropDemands removes every demand queued for playerID.
func dropDemands(st *models.GameState, playerID uuid.UUID) {
	if i := findDemand(st, playerID); i >= 0 {
		st.ShotCallerDemands = append(st.ShotCallerDemands[:i], st.ShotCallerDemands[i+1:]...)
	}
	if st.ShotCallerTargetID != nil && *st.ShotCallerTargetID == playerID {
		reelectTarget(st)
	}
}

// reelectTarget picks the first player (insertion order) with a non-empty queue, or clears it.
func reelectTarget(st *models.GameState) {
	st.ShotCallerTargetID = nil
	for _, d := range st.ShotCallerDemands {
		if len(d.Colors) > 0 {
			id := d.PlayerID
			st.ShotCallerTargetID = &id
			return
		}
	}
}
