// internal/game/deck.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// BuildDeck generates and shuffles one deck for the given settings.
//
// Each color gets a single 0 plus four copies of every number from 0 to 9 except 8, so zeros
// appear five times per color. The action cards follow, then the colorless wild family, then
// fog cards when fog of war is enabled.
func BuildDeck(settings models.Settings, rng Rand, newID func() uuid.UUID) []models.Card {
	var deck []models.Card
	add := func(color models.Color, value models.Value, copies int) {
		for i := 0; i < copies; i++ {
			deck = append(deck, models.Card{ID: newID(), Color: color, Value: value})
		}
	}

	for _, color := range models.PlayableColors {
		add(color, models.Number(0), 1)
		for n := 0; n <= 9; n++ {
			if n == 8 {
				continue
			}
			add(color, models.Number(n), 4)
		}
		add(color, models.Skip, settings.SkipPerColor)
		add(color, models.Reverse, settings.ReversePerColor)
		add(color, models.Draw2, settings.Draw2PerColor)
	}
	add(models.ColorWild, models.Wild, settings.WildCount)
	add(models.ColorWild, models.WildDraw4, settings.WildDraw4Count)
	if settings.FogEnabled {
		add(models.ColorWild, models.Fog, settings.FogCardCount)
	}

	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// DeckSize is the number of cards BuildDeck produces for settings.
func DeckSize(settings models.Settings) int {
	perColor := 1 + 9*4 + settings.SkipPerColor + settings.ReversePerColor + settings.Draw2PerColor
	n := len(models.PlayableColors)*perColor + settings.WildCount + settings.WildDraw4Count
	if settings.FogEnabled {
		n += settings.FogCardCount
	}
	return n
}
