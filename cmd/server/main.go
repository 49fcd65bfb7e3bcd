package main

import (
	"context"
	"log"
	"time"

	"anoa.com/learnhub/internal/bootstrap"
	"anoa.com/learnhub/internal/config"
	"anoa.com/learnhub/internal/server"
	"anoa.com/learnhub/pkg/database"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/response"
	"anoa.com/learnhub/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	response.SetLogger(appLogger)

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Environment: cfg.AppEnv,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			appLogger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	db, err := database.Connect(database.Options{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		Verbose:  cfg.IsDevelopment(),
	})
	if err != nil {
		appLogger.Fatal("database connection failed", "error", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		appLogger.Fatal("migration failed", "error", err)
	}
	if err := bootstrap.SeedCategories(db); err != nil {
		appLogger.Fatal("failed to seed categories", "error", err)
	}
	if err := bootstrap.SeedAdminUsers(db, cfg.AdminEmails, appLogger); err != nil {
		appLogger.Fatal("failed to seed admin users", "error", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		appLogger.Warn("redis unavailable, realtime notifications and rate limiting disabled", "error", err)
		redisClient = nil
	}

	srv := server.NewServer(cfg, db, redisClient, appLogger)
	if err := srv.Run(":" + cfg.Port); err != nil {
		appLogger.Fatal("server exited with error", "error", err)
	}
}
