// internal/models/settings.go
package models

import "fmt"

// Settings captures the per-room rule configuration. Every field is a plain scalar so the
// whole record can be exposed to clients as-is.
type Settings struct {
	Version int `json:"version"`

	StartingHandCount int `json:"startingHandCount"` // cards dealt to each player

	SkipPerColor    int `json:"skipPerColor"`
	ReversePerColor int `json:"reversePerColor"`
	Draw2PerColor   int `json:"draw2PerColor"`
	WildCount       int `json:"wildCount"`
	WildDraw4Count  int `json:"wildDraw4Count"`

	AllowStackDraws        bool `json:"allowStackDraws"`        // draw2/draw4 may answer a pending debt
	AllowMixedDrawStacking bool `json:"allowMixedDrawStacking"` // draw2 on draw4 and vice versa

	ShotCallerEnabled bool `json:"shotCallerEnabled"` // wild players force a color on a target

	BombEnabled   bool `json:"bombEnabled"`
	BombDrawCount int  `json:"bombDrawCount"`
	DebugAllBombs bool `json:"debugAllBombs"` // every numeric card detonates

	FogEnabled    bool `json:"fogEnabled"`
	FogCardCount  int  `json:"fogCardCount"`
	FogBlindTurns int  `json:"fogBlindTurns"`

	AllowSevenZeroRule  bool `json:"allowSevenZeroRule"`
	AllowJoinInProgress bool `json:"allowJoinInProgress"`
}

type intBound struct{ min, max int }

var (
	handBound      = intBound{1, 20}
	perColorBound  = intBound{0, 4}
	wildBound      = intBound{0, 8}
	bombDrawBound  = intBound{1, 10}
	fogCardBound   = intBound{0, 8}
	blindTurnBound = intBound{1, 5}
)

func (b intBound) clamp(v int) int {
	if v < b.min {
		return b.min
	}
	if v > b.max {
		return b.max
	}
	return v
}

// DefaultSettings returns the settings a new room starts with.
func DefaultSettings() Settings {
	return Settings{
		Version:           1,
		StartingHandCount: 7,
		SkipPerColor:      2,
		ReversePerColor:   2,
		Draw2PerColor:     2,
		WildCount:         4,
		WildDraw4Count:    4,
		BombDrawCount:     3,
		FogCardCount:      2,
		FogBlindTurns:     2,
	}
}

// Normalized returns a copy with every numeric field clamped into its allowed range.
func (s Settings) Normalized() Settings {
	s.StartingHandCount = handBound.clamp(s.StartingHandCount)
	s.SkipPerColor = perColorBound.clamp(s.SkipPerColor)
	s.ReversePerColor = perColorBound.clamp(s.ReversePerColor)
	s.Draw2PerColor = perColorBound.clamp(s.Draw2PerColor)
	s.WildCount = wildBound.clamp(s.WildCount)
	s.WildDraw4Count = wildBound.clamp(s.WildDraw4Count)
	s.BombDrawCount = bombDrawBound.clamp(s.BombDrawCount)
	s.FogCardCount = fogCardBound.clamp(s.FogCardCount)
	s.FogBlindTurns = blindTurnBound.clamp(s.FogBlindTurns)
	return s
}

// Update applies a partial update decoded from JSON. Keys that are absent keep their old value.
// A type mismatch aborts the update with an error and leaves s untouched.
func (s *Settings) Update(newRules map[string]interface{}) error {
	next := *s

	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		switch n := val.(type) {
		case float64:
			*field = int(n)
		case int:
			*field = n
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		return nil
	}

	ints := map[string]*int{
		"startingHandCount": &next.StartingHandCount,
		"skipPerColor":      &next.SkipPerColor,
		"reversePerColor":   &next.ReversePerColor,
		"draw2PerColor":     &next.Draw2PerColor,
		"wildCount":         &next.WildCount,
		"wildDraw4Count":    &next.WildDraw4Count,
		"bombDrawCount":     &next.BombDrawCount,
		"fogCardCount":      &next.FogCardCount,
		"fogBlindTurns":     &next.FogBlindTurns,
	}
	for key, field := range ints {
		if err := assignInt(field, key); err != nil {
			return err
		}
	}

	bools := map[string]*bool{
		"allowStackDraws":        &next.AllowStackDraws,
		"allowMixedDrawStacking": &next.AllowMixedDrawStacking,
		"shotCallerEnabled":      &next.ShotCallerEnabled,
		"bombEnabled":            &next.BombEnabled,
		"debugAllBombs":          &next.DebugAllBombs,
		"fogEnabled":             &next.FogEnabled,
		"allowSevenZeroRule":     &next.AllowSevenZeroRule,
		"allowJoinInProgress":    &next.AllowJoinInProgress,
	}
	for key, field := range bools {
		if err := assignBool(field, key); err != nil {
			return err
		}
	}

	next = next.Normalized()
	next.Version = s.Version + 1
	*s = next
	return nil
}

// ParseSettings applies a partial update to a copy of current.
func ParseSettings(rules map[string]interface{}, current Settings) (Settings, error) {
	settings := current
	err := settings.Update(rules)
	return settings, err
}
