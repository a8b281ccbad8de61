package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/pkg/config"
	"github.com/scms-ph/attendance-api/pkg/database"
	"github.com/scms-ph/attendance-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("migration failed", zap.Error(err))
	}
	logr.Info("schema migrated", zap.String("database", cfg.Database.Name))
}
