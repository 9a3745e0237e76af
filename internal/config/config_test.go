package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "GAME_MODULE", "REDIS_ADDR", "REDIS_DB", "HISTORIAN_QUEUE_NAME",
	"HISTORIAN_ACTION_QUEUE_NAME", "DATABASE_URL", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS",
	"TOKEN_EXPIRE_TIME", "ED25519_PRIVATE_KEY_PATH", "ED25519_PUBLIC_KEY_PATH", "ALLOWED_ORIGIN",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "crazyeights", cfg.Game)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.DatabaseEnabled())
	assert.Equal(t, "crazyeights_rounds", cfg.ResultQueueName)
	assert.Equal(t, "crazyeights_actions", cfg.ActionQueueName)
	assert.Equal(t, 20, cfg.HistorianBatch)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlush)
	assert.Zero(t, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TOKEN_EXPIRE_TIME", "72h")
	t.Setenv("HISTORIAN_FLUSH_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.HistorianFlush)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"LOG_LEVEL":            "chatty",
		"TOKEN_EXPIRE_TIME":    "soon",
		"REDIS_DB":             "zero",
		"HISTORIAN_BATCH_SIZE": "0",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\nDATABASE_URL=postgres://localhost/ce\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DATABASE_URL")
	})

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.True(t, cfg.DatabaseEnabled())
}
