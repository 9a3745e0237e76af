// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Color is the color of a card. Wild-family and fog cards carry ColorWild.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

// PlayableColors lists the four real colors in deck order.
var PlayableColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// IsPlayable reports whether c is one of the four real colors (not wild, not empty).
func (c Color) IsPlayable() bool {
	switch c {
	case ColorRed, ColorYellow, ColorGreen, ColorBlue:
		return true
	}
	return false
}

// ValueKind discriminates the Value tagged union.
type ValueKind string

const (
	KindNumber    ValueKind = "number"
	KindSkip      ValueKind = "skip"
	KindReverse   ValueKind = "reverse"
	KindDraw2     ValueKind = "draw2"
	KindWild      ValueKind = "wild"
	KindWildDraw4 ValueKind = "wildDraw4"
	KindFog       ValueKind = "fog"
)

// Value is the face of a card: either a number 0-9 or one of the action kinds.
// Number is only meaningful when Kind == KindNumber.
type Value struct {
	Kind   ValueKind
	Number int
}

// Number returns a numeric card value.
func Number(n int) Value { return Value{Kind: KindNumber, Number: n} }

var (
	Skip      = Value{Kind: KindSkip}
	Reverse   = Value{Kind: KindReverse}
	Draw2     = Value{Kind: KindDraw2}
	Wild      = Value{Kind: KindWild}
	WildDraw4 = Value{Kind: KindWildDraw4}
	Fog       = Value{Kind: KindFog}
)

// IsNumber reports whether v is a numeric value, optionally matching n when n >= 0.
func (v Value) IsNumber(n int) bool {
	return v.Kind == KindNumber && (n < 0 || v.Number == n)
}

// IsWildFamily is true for wild and wild-draw-4. Fog is not part of the wild family.
func (v Value) IsWildFamily() bool {
	return v.Kind == KindWild || v.Kind == KindWildDraw4
}

func (v Value) String() string {
	if v.Kind == KindNumber {
		return fmt.Sprintf("%d", v.Number)
	}
	return string(v.Kind)
}

// MarshalJSON encodes numbers as {"number":n} and every other kind as its bare name.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber {
		return json.Marshal(struct {
			Number int `json:"number"`
		}{v.Number})
	}
	return json.Marshal(string(v.Kind))
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch k := ValueKind(name); k {
		case KindSkip, KindReverse, KindDraw2, KindWild, KindWildDraw4, KindFog:
			*v = Value{Kind: k}
			return nil
		}
		return fmt.Errorf("unknown card value %q", name)
	}
	var num struct {
		Number *int `json:"number"`
	}
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid card value: %w", err)
	}
	if num.Number == nil || *num.Number < 0 || *num.Number > 9 {
		return fmt.Errorf("invalid number card value %s", string(data))
	}
	*v = Number(*num.Number)
	return nil
}

// Card is an immutable playing card.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Color Color     `json:"color"`
	Value Value     `json:"value"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}
