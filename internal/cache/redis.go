// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes round results and action records onto Redis lists for the historian. It
// satisfies the room manager's ResultRecorder and ActionRecorder.
type Publisher struct {
	rdb         *redis.Client
	resultQueue string
	actionQueue string
}

// NewPublisher publishes results to resultQueue and actions to actionQueue.
func NewPublisher(rdb *redis.Client, resultQueue, actionQueue string) *Publisher {
	return &Publisher{rdb: rdb, resultQueue: resultQueue, actionQueue: actionQueue}
}

// RecordRound serializes res and RPUSHes it to the result queue.
func (p *Publisher) RecordRound(ctx context.Context, res models.RoundResult) error {
	return p.push(ctx, p.resultQueue, res)
}

// RecordAction serializes rec and RPUSHes it to the action queue.
func (p *Publisher) RecordAction(ctx context.Context, rec models.ActionRecord) error {
	return p.push(ctx, p.actionQueue, rec)
}

func (p *Publisher) push(ctx context.Context, queue string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	if err := p.rdb.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queue, err)
	}
	return nil
}
