// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool for url and pings it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	round_id   UUID PRIMARY KEY,
	room_code  TEXT NOT NULL,
	winner_id  UUID NOT NULL,
	ended_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS round_players (
	round_id   UUID NOT NULL REFERENCES rounds(round_id) ON DELETE CASCADE,
	player_id  UUID NOT NULL,
	name       TEXT NOT NULL,
	hand_size  INT NOT NULL,
	did_win    BOOLEAN NOT NULL,
	PRIMARY KEY (round_id, player_id)
);

CREATE TABLE IF NOT EXISTS player_wins (
	player_id  UUID PRIMARY KEY,
	wins       INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS player_ratings (
	player_id  UUID PRIMARY KEY,
	elo        DOUBLE PRECISION NOT NULL,
	rd         DOUBLE PRECISION NOT NULL,
	sigma      DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS round_actions (
	room_id        UUID NOT NULL,
	room_code      TEXT NOT NULL,
	round_id       UUID NOT NULL,
	action_index   INT NOT NULL,
	actor_id       UUID NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, round_id, action_index)
);
`

// Migrate creates the historian tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
