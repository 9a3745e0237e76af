// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the environment both binaries run with.
type Config struct {
	Port     string
	LogLevel logrus.Level
	Game     string

	RedisAddr       string
	RedisDB         int
	ResultQueueName string
	ActionQueueName string
	DatabaseURL     string
	HistorianBatch  int
	HistorianFlush  time.Duration
	TokenTTL        time.Duration
	PrivateKeyPath  string
	PublicKeyPath   string
	AllowedOrigins  []string
}

// RedisEnabled reports whether results and actions should be published.
func (c Config) RedisEnabled() bool { return c.RedisAddr != "" }

// DatabaseEnabled reports whether a Postgres pool should be opened.
func (c Config) DatabaseEnabled() bool { return c.DatabaseURL != "" }

// Load reads files with godotenv (missing files are fine) and then the process environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "debug"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	ttl, err := parseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return Config{}, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	batch, err := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	if err != nil {
		return Config{}, err
	}
	flushMs, err := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	if err != nil {
		return Config{}, err
	}
	if batch < 1 || flushMs < 1 {
		return Config{}, fmt.Errorf("historian batch size and flush interval must be positive")
	}

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        level,
		Game:            getEnv("GAME_MODULE", "crazyeights"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         redisDB,
		ResultQueueName: getEnv("HISTORIAN_QUEUE_NAME", "crazyeights_rounds"),
		ActionQueueName: getEnv("HISTORIAN_ACTION_QUEUE_NAME", "crazyeights_actions"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HistorianBatch:  batch,
		HistorianFlush:  time.Duration(flushMs) * time.Millisecond,
		TokenTTL:        ttl,
		PrivateKeyPath:  os.Getenv("ED25519_PRIVATE_KEY_PATH"),
		PublicKeyPath:   os.Getenv("ED25519_PUBLIC_KEY_PATH"),
		AllowedOrigins:  []string{getEnv("ALLOWED_ORIGIN", "*")},
	}
	return cfg, nil
}

// parseTokenExpireTime accepts a Go duration, or "never"/"0"/"" for tokens without expiry.
func parseTokenExpireTime(v string) (time.Duration, error) {
	switch v {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("TOKEN_EXPIRE_TIME must not be negative")
	}
	return d, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
