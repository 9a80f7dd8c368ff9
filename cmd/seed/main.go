package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"topglass/internal/config"
	"topglass/internal/database"
	"topglass/internal/domain/admin"
	"topglass/internal/pkg/jwt"
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

	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	name := strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Administrateur"
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	svc := admin.NewService(admin.NewAdminRepository(db), jwt.New(cfg.JWTSecret, cfg.JWTTTL), log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, created, err := svc.EnsureAdmin(ctx, email, password, name)
	if err != nil {
		log.Fatal("seed admin failed", zap.String("email", email), zap.Error(err))
	}
	if created {
		log.Info("admin created", zap.String("id", user.ID), zap.String("email", user.Email))
		return
	}
	log.Info("admin password reset", zap.String("id", user.ID), zap.String("email", user.Email))
}
