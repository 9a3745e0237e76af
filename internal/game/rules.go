// internal/game/rules.go
package game

import "github.com/jason-s-yu/crazyeights/internal/models"

// CanPlay reports whether card may legally be played on st by the current player.
func CanPlay(st *models.GameState, card models.Card) bool {
	top := st.TopDiscard()
	if top == nil {
		return true
	}

	if st.PendingDraw > 0 {
		if !st.Config.AllowStackDraws {
			return false
		}
		mixed := st.Config.AllowMixedDrawStacking
		switch card.Value.Kind {
		case models.KindDraw2:
			return top.Value.Kind == models.KindDraw2 || (mixed && top.Value.Kind == models.KindWildDraw4)
		case models.KindWildDraw4:
			return top.Value.Kind == models.KindWildDraw4 || (mixed && top.Value.Kind == models.KindDraw2)
		}
		return false
	}

	if demand, ok := activeDemand(st); ok {
		if card.Value.IsWildFamily() {
			return true
		}
		return card.Color == demand
	}

	if card.Value.IsWildFamily() || card.Value.Kind == models.KindFog {
		return true
	}

	return card.Color == effectiveTopColor(st, *top) || card.Value == top.Value
}

// effectiveTopColor is the top card's color, or the bound wild color when the top is colorless.
func effectiveTopColor(st *models.GameState, top models.Card) models.Color {
	if top.Color == models.ColorWild && st.ChosenWildColor != nil {
		return *st.ChosenWildColor
	}
	return top.Color
}

// activeDemand returns the forced color the current player must satisfy, if they are the active
// shot-caller target with a non-empty queue.
func activeDemand(st *models.GameState) (models.Color, bool) {
	cur := st.CurrentPlayer()
	if cur == nil || st.ShotCallerTargetID == nil || *st.ShotCallerTargetID != cur.ID {
		return "", false
	}
	d := findDemand(st, cur.ID)
	if d < 0 || len(st.ShotCallerDemands[d].Colors) == 0 {
		return "", false
	}
	return st.ShotCallerDemands[d].Colors[0], true
}

func hasPlayableCard(st *models.GameState, p *models.Player) bool {
	for _, c := range p.Hand {
		if CanPlay(st, c) {
			return true
		}
	}
	return false
}
