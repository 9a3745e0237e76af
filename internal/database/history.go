// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/jason-s-yu/crazyeights/internal/rating"
)

// Store persists round results and action logs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveBatch writes results and actions in a single transaction. Replayed rounds and actions are
// ignored, so a winner is credited once per RoundID no matter how often the batch is retried.
func (s *Store) SaveBatch(ctx context.Context, results []models.RoundResult, actions []models.ActionRecord) error {
	if len(results) == 0 && len(actions) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, res := range results {
			if err := insertRound(ctx, tx, res); err != nil {
				return err
			}
		}
		for _, rec := range actions {
			if err := insertAction(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx save history batch: %w", err)
	}
	return nil
}

func insertRound(ctx context.Context, tx pgx.Tx, res models.RoundResult) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO rounds (round_id, room_code, winner_id, ended_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round_id) DO NOTHING
	`, res.RoundID, res.RoomCode, res.WinnerID, res.EndedAt)
	if err != nil {
		return fmt.Errorf("insert round %s: %w", res.RoundID, err)
	}
	if tag.RowsAffected() == 0 {
		// Already recorded.
		return nil
	}

	for _, p := range res.Players {
		if _, err := tx.Exec(ctx, `
			INSERT INTO round_players (round_id, player_id, name, hand_size, did_win)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (round_id, player_id) DO NOTHING
		`, res.RoundID, p.ID, p.Name, p.HandSize, p.ID == res.WinnerID); err != nil {
			return fmt.Errorf("insert round player %s: %w", p.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO player_wins (player_id, wins, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (player_id)
		DO UPDATE SET wins = player_wins.wins + 1, updated_at = now()
	`, res.WinnerID); err != nil {
		return fmt.Errorf("credit winner %s: %w", res.WinnerID, err)
	}
	return updateRatings(ctx, tx, res)
}

// updateRatings applies one Glicko2 step for everyone seated in res.
func updateRatings(ctx context.Context, tx pgx.Tx, res models.RoundResult) error {
	ids := make([]uuid.UUID, 0, len(res.Players))
	for _, p := range res.Players {
		ids = append(ids, p.ID)
	}
	rows, err := tx.Query(ctx, `
		SELECT player_id, elo, rd, sigma FROM player_ratings WHERE player_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	current := make(map[uuid.UUID]rating.Rating, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var r rating.Rating
		if err := rows.Scan(&id, &r.Elo, &r.RD, &r.Sigma); err != nil {
			rows.Close()
			return fmt.Errorf("scan rating: %w", err)
		}
		current[id] = r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}

	for id, r := range rating.Apply(current, res) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO player_ratings (player_id, elo, rd, sigma, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (player_id)
			DO UPDATE SET elo = $2, rd = $3, sigma = $4, updated_at = now()
		`, id, r.Elo, r.RD, r.Sigma); err != nil {
			return fmt.Errorf("store rating %s: %w", id, err)
		}
	}
	return nil
}

func insertAction(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal action payload: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO round_actions (room_id, room_code, round_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_id, round_id, action_index) DO NOTHING
	`, rec.RoomID, rec.RoomCode, rec.RoundID, rec.ActionIndex, rec.ActorID, string(rec.ActionType), payload, time.UnixMilli(rec.Timestamp).UTC())
	if err != nil {
		return fmt.Errorf("insert action %s/%d: %w", rec.RoomCode, rec.ActionIndex, err)
	}
	return nil
}

// Wins returns how many rounds playerID has won.
func (s *Store) Wins(ctx context.Context, playerID uuid.UUID) (int, error) {
	var wins int
	err := s.pool.QueryRow(ctx, `SELECT wins FROM player_wins WHERE player_id = $1`, playerID).Scan(&wins)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query wins: %w", err)
	}
	return wins, nil
}

// Rating returns playerID's current rating, or the default for an unrated player.
func (s *Store) Rating(ctx context.Context, playerID uuid.UUID) (rating.Rating, error) {
	var r rating.Rating
	err := s.pool.QueryRow(ctx, `SELECT elo, rd, sigma FROM player_ratings WHERE player_id = $1`, playerID).
		Scan(&r.Elo, &r.RD, &r.Sigma)
	if errors.Is(err, pgx.ErrNoRows) {
		return rating.Default(), nil
	}
	if err != nil {
		return rating.Rating{}, fmt.Errorf("query rating: %w", err)
	}
	return r, nil
}
