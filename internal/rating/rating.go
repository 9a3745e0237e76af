// internal/rating/rating.go
package rating

import (
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// Standings turns a round result into a score in [0..1] per player. The winner gets 1; everyone
// else is ranked by cards left in hand (fewer is better) with ties sharing the mid-rank score.
func Standings(res models.RoundResult) map[uuid.UUID]float64 {
	players := append([]models.ResultPlayer(nil), res.Players...)
	sort.SliceStable(players, func(i, j int) bool {
		wi, wj := players[i].ID == res.WinnerID, players[j].ID == res.WinnerID
		if wi != wj {
			return wi
		}
		return players[i].HandSize < players[j].HandSize
	})

	out := make(map[uuid.UUID]float64, len(players))
	if len(players) < 2 {
		for _, p := range players {
			out[p.ID] = 1
		}
		return out
	}
	last := float64(len(players) - 1)
	for i := 0; i < len(players); {
		j := i + 1
		if players[i].ID != res.WinnerID {
			for j < len(players) && players[j].HandSize == players[i].HandSize {
				j++
			}
		}
		avgRank := float64(i+j-1) / 2
		for k := i; k < j; k++ {
			out[players[k].ID] = 1 - avgRank/last
		}
		i = j
	}
	return out
}

// Apply rates one finished round. Each player plays a single Glicko2 match against the average
// of the others; players missing from current start at Default. Rounds with fewer than two
// players change nothing.
func Apply(current map[uuid.UUID]Rating, res models.RoundResult) map[uuid.UUID]Rating {
	out := make(map[uuid.UUID]Rating, len(res.Players))
	if len(res.Players) < 2 {
		return out
	}
	before := make(map[uuid.UUID]Rating, len(res.Players))
	var totalElo float64
	for _, p := range res.Players {
		r, ok := current[p.ID]
		if !ok {
			r = Default()
		}
		before[p.ID] = r
		totalElo += r.Elo
	}

	scores := Standings(res)
	n := float64(len(res.Players))
	for _, p := range res.Players {
		r := before[p.ID]
		opp := Rating{Elo: (totalElo - r.Elo) / (n - 1), RD: DefaultRD, Sigma: DefaultSigma}
		out[p.ID] = update(r.toGlicko(), opp.toGlicko(), scores[p.ID]).toRating()
	}
	return out
}
