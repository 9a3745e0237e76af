package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSONEncoding(t *testing.T) {
	data, err := json.Marshal(Number(7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":7}`, string(data))

	data, err = json.Marshal(WildDraw4)
	require.NoError(t, err)
	assert.Equal(t, `"wildDraw4"`, string(data))

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"number":0}`), &v))
	assert.Equal(t, Number(0), v)
	require.NoError(t, json.Unmarshal([]byte(`"fog"`), &v))
	assert.Equal(t, Fog, v)
}

func TestValueJSONRejectsGarbage(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`"eight"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"number":12}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &v))
}

func TestCardRoundTrip(t *testing.T) {
	c := Card{ID: uuid.New(), Color: ColorGreen, Value: Reverse}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var back Card
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewGameState()
	pid := uuid.New()
	s.Players = []Player{{ID: pid, Hand: []Card{{ID: uuid.New(), Color: ColorRed, Value: Number(1)}}}}
	s.UnoCalled[pid] = true
	s.ShotCallerDemands = []ShotCallerDemand{{PlayerID: pid, Colors: []Color{ColorBlue}}}
	s.BlindedPlayerID = &pid

	c := s.Clone()
	c.Players[0].Hand = c.Players[0].Hand[:0]
	c.UnoCalled[uuid.New()] = true
	c.ShotCallerDemands[0].Colors[0] = ColorRed
	*c.BlindedPlayerID = uuid.New()

	assert.Len(t, s.Players[0].Hand, 1)
	assert.Len(t, s.UnoCalled, 1)
	assert.Equal(t, ColorBlue, s.ShotCallerDemands[0].Colors[0])
	assert.Equal(t, pid, *s.BlindedPlayerID)

	assert.Equal(t, NewGameState(), NewGameState().Clone(), "empty and nil collections survive a clone")
}

func TestSettingsUpdate(t *testing.T) {
	s := DefaultSettings()
	err := s.Update(map[string]interface{}{
		"startingHandCount": float64(99),
		"bombEnabled":       true,
		"fogBlindTurns":     0,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, s.StartingHandCount)
	assert.True(t, s.BombEnabled)
	assert.Equal(t, 1, s.FogBlindTurns)
	assert.Equal(t, 2, s.Version)
}

func TestSettingsUpdateTypeMismatchLeavesSettings(t *testing.T) {
	s := DefaultSettings()
	err := s.Update(map[string]interface{}{"bombEnabled": "yes", "startingHandCount": float64(3)})
	require.Error(t, err)
	assert.Equal(t, DefaultSettings(), s)
}
