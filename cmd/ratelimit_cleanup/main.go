package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"topglass/internal/config"
	"topglass/internal/database"
	"topglass/internal/domain/ratelimit"
	"topglass/internal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var store ratelimit.Store
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		defer rdb.Close()
		store = ratelimit.NewRedisStore(rdb)
	} else {
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		store = ratelimit.NewGormStore(db)
	}

	before := time.Now().Add(-ratelimit.Retention)
	removed, err := store.Cleanup(ctx, before)
	if err != nil {
		log.Fatal("rate limit cleanup failed", zap.Error(err))
	}
	log.Info("rate limit cleanup completed", zap.Int64("removed", removed), zap.Time("before", before))
}
