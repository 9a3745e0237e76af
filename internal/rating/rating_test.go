package rating

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func round(winner uuid.UUID, players ...models.ResultPlayer) models.RoundResult {
	return models.RoundResult{RoundID: uuid.New(), WinnerID: winner, Players: players}
}

func TestHeadToHead(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	res := round(a, models.ResultPlayer{ID: a}, models.ResultPlayer{ID: b, HandSize: 4})

	out := Apply(nil, res)
	require.Len(t, out, 2)
	assert.Greater(t, out[a].Elo, DefaultElo)
	assert.Less(t, out[b].Elo, DefaultElo)
	assert.Less(t, out[a].RD, DefaultRD)
	assert.InDelta(t, out[a].Elo-DefaultElo, DefaultElo-out[b].Elo, 0.01)
}

func TestStandingsRankByHandSize(t *testing.T) {
	w, x, y, z := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	res := round(w,
		models.ResultPlayer{ID: z, HandSize: 9},
		models.ResultPlayer{ID: x, HandSize: 2},
		models.ResultPlayer{ID: w, HandSize: 0},
		models.ResultPlayer{ID: y, HandSize: 2},
	)

	s := Standings(res)
	assert.Equal(t, 1.0, s[w])
	assert.InDelta(t, 0.5, s[x], 1e-9)
	assert.Equal(t, s[x], s[y])
	assert.Equal(t, 0.0, s[z])
}

func TestSinglePlayerRoundIsUnrated(t *testing.T) {
	a := uuid.New()
	assert.Empty(t, Apply(nil, round(a, models.ResultPlayer{ID: a})))
}

func TestUpsetMovesMore(t *testing.T) {
	strong, weak := uuid.New(), uuid.New()
	current := map[uuid.UUID]Rating{
		strong: {Elo: 1900, RD: 80, Sigma: DefaultSigma},
		weak:   {Elo: 1300, RD: 80, Sigma: DefaultSigma},
	}
	expectedWin := Apply(current, round(strong, models.ResultPlayer{ID: strong}, models.ResultPlayer{ID: weak, HandSize: 3}))
	upset := Apply(current, round(weak, models.ResultPlayer{ID: weak}, models.ResultPlayer{ID: strong, HandSize: 3}))

	gainExpected := expectedWin[strong].Elo - 1900
	gainUpset := upset[weak].Elo - 1300
	assert.Greater(t, gainUpset, gainExpected)
}
