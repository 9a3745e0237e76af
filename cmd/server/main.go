// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/crazyeights/internal/auth"
	"github.com/jason-s-yu/crazyeights/internal/cache"
	"github.com/jason-s-yu/crazyeights/internal/config"
	"github.com/jason-s-yu/crazyeights/internal/database"
	"github.com/jason-s-yu/crazyeights/internal/game"
	"github.com/jason-s-yu/crazyeights/internal/handlers"
	"github.com/jason-s-yu/crazyeights/internal/middleware"
	"github.com/jason-s-yu/crazyeights/internal/registry"
	"github.com/jason-s-yu/crazyeights/internal/room"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.Default()
	mod, ok := reg.Lookup(cfg.Game)
	if !ok {
		logger.Fatalf("unknown game module %q", cfg.Game)
	}
	engine := mod.NewEngine(game.WithLogger(logger.WithField("module", mod.ID)))

	opts := []room.Option{
		room.WithLogger(logger),
		room.WithMaxPlayers(mod.MaxPlayers),
	}
	if cfg.RedisEnabled() {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		pub := cache.NewPublisher(rdb, cfg.ResultQueueName, cfg.ActionQueueName)
		opts = append(opts, room.WithResultRecorder(pub), room.WithActionRecorder(pub))
		logger.Infof("publishing round history to Redis at %s", cfg.RedisAddr)
	} else {
		logger.Info("REDIS_ADDR not set, round history is not recorded")
	}
	manager := room.NewManager(engine, opts...)

	var issuer *auth.Issuer
	if cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "" {
		issuer, err = auth.NewIssuerFromFiles(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenTTL)
	} else {
		logger.Warn("no ED25519 key paths set, generating ephemeral signing keys")
		issuer, err = auth.NewIssuer(cfg.TokenTTL)
	}
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	rs := &handlers.RoomServer{
		Manager:        manager,
		Issuer:         issuer,
		Logger:         logger,
		OriginPatterns: cfg.AllowedOrigins,
	}
	wrap := func(h http.Handler) http.Handler {
		return middleware.Recover(logger)(middleware.LogMiddleware(logger)(h))
	}

	mux := http.NewServeMux()
	mux.Handle("/room/ws", wrap(handlers.RoomWSHandler(rs)))
	mux.Handle("/rooms", wrap(handlers.ListRoomsHandler(manager)))
	mux.Handle("/token", wrap(handlers.TokenHandler(issuer)))
	mux.Handle("/modules", wrap(handlers.ModulesHandler(reg)))

	if cfg.DatabaseEnabled() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		mux.Handle("GET /players/{id}/stats", wrap(handlers.PlayerStatsHandler(database.NewStore(pool), logger)))
	} else {
		logger.Info("DATABASE_URL not set, player stats are disabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}
