// cmd/historian/main.go is the asynchronous historian: it pops round results and action records
// from Redis and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/crazyeights/internal/cache"
	"github.com/jason-s-yu/crazyeights/internal/config"
	"github.com/jason-s-yu/crazyeights/internal/database"
	"github.com/jason-s-yu/crazyeights/internal/historian"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	if !cfg.RedisEnabled() || !cfg.DatabaseEnabled() {
		logger.Fatal("historian needs both REDIS_ADDR and DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatalf("database: %v", err)
	}

	hs := historian.New(rdb, database.NewStore(pool), historian.Options{
		ResultQueue: cfg.ResultQueueName,
		ActionQueue: cfg.ActionQueueName,
		BatchSize:   cfg.HistorianBatch,
		FlushDelay:  cfg.HistorianFlush,
		Logger:      logger,
	})
	hs.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
