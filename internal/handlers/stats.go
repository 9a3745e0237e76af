// internal/handlers/stats.go
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/rating"
	"github.com/sirupsen/logrus"
)

// StatsStore reads the historian's per-player aggregates.
type StatsStore interface {
	Wins(ctx context.Context, playerID uuid.UUID) (int, error)
	Rating(ctx context.Context, playerID uuid.UUID) (rating.Rating, error)
}

type playerStats struct {
	PlayerID uuid.UUID     `json:"playerId"`
	Wins     int           `json:"wins"`
	Rating   rating.Rating `json:"rating"`
}

// PlayerStatsHandler serves GET /players/{id}/stats.
func PlayerStatsHandler(store StatsStore, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}
		wins, err := store.Wins(r.Context(), id)
		if err != nil {
			logger.WithError(err).Warn("failed to load wins")
			http.Error(w, "failed to load stats", http.StatusInternalServerError)
			return
		}
		rt, err := store.Rating(r.Context(), id)
		if err != nil {
			logger.WithError(err).Warn("failed to load rating")
			http.Error(w, "failed to load stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, playerStats{PlayerID: id, Wins: wins, Rating: rt})
	}
}
