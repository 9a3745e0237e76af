package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a Redis on localhost:6379; skipped otherwise.
func TestPublisherPushesToQueues(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := Connect(ctx, "localhost:6379", 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	resultQ := "test_rounds_" + uuid.NewString()
	actionQ := "test_actions_" + uuid.NewString()
	defer rdb.Del(context.Background(), resultQ, actionQ)
	pub := NewPublisher(rdb, resultQ, actionQ)

	res := models.RoundResult{RoundID: uuid.New(), RoomCode: "T", WinnerID: uuid.New(), EndedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, pub.RecordRound(ctx, res))
	rec := models.ActionRecord{RoomCode: "T", ActionIndex: 4, ActionType: models.ActionIntentDraw}
	require.NoError(t, pub.RecordAction(ctx, rec))

	raw, err := rdb.LPop(ctx, resultQ).Result()
	require.NoError(t, err)
	var gotRes models.RoundResult
	require.NoError(t, json.Unmarshal([]byte(raw), &gotRes))
	assert.Equal(t, res.RoundID, gotRes.RoundID)
	assert.True(t, res.EndedAt.Equal(gotRes.EndedAt))

	raw, err = rdb.LPop(ctx, actionQ).Result()
	require.NoError(t, err)
	var gotRec models.ActionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &gotRec))
	assert.Equal(t, 4, gotRec.ActionIndex)
	assert.Equal(t, models.ActionIntentDraw, gotRec.ActionType)
}

func TestConnectFailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Connect(ctx, "127.0.0.1:1", 0)
	assert.Error(t, err)
}
