package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"museo-server/pkg/database"
	"museo-server/pkg/migration"
	"museo-server/progress-service/internal/config"
	"museo-server/progress-service/internal/seeder"
	"museo-server/progress-service/internal/service"
	sharedDatabase "museo-server/shared/database"
	sharedLogger "museo-server/shared/logger"

	"go.uber.org/zap"
)

func main() {
	catalogPath := flag.String("catalog", "catalog.yaml", "path to the YAML museum catalog")
	envPath := flag.String("env", "../../.env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*envPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{Level: cfg.LogLevel, Encoding: "console"})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cat, err := seeder.LoadCatalog(*catalogPath)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("path", *catalogPath), zap.Error(err))
	}

	ctx := context.Background()
	pgPool, err := database.ConnectPostgres(ctx, cfg.Postgres(), cfg.ConnectRetry(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: sharedDatabase.MigrationsPath,
		MigrationsFS:   sharedDatabase.MigrationsFS,
	}, pgPool, logger)
	if err := migrator.Up(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis(), cfg.ConnectRetry(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	pgCatalog := sharedDatabase.NewPgRoomCatalog(pgPool, logger)
	cachedCatalog := sharedDatabase.NewRedisRoomCatalog(pgCatalog, redisClient, cfg.CatalogCacheTTL, logger)
	users := sharedDatabase.NewPgUserAccount(logger)
	txManager := sharedDatabase.NewTxManager(pgPool, sharedDatabase.TxConfig{
		MaxAttempts: cfg.TxMaxAttempts,
		BaseDelay:   cfg.TxRetryBaseDelay,
	}, logger)

	policy := service.DefaultPolicy()
	policy.Scoring = service.ScoringPolicy{PointsPerHint: cfg.PointsPerHint, PointsPerRoom: cfg.PointsPerRoom}
	policy.RequirePriorUnlock = cfg.RequirePriorUnlock
	policy.BootstrapUnlockedRooms = cfg.BootstrapUnlockedRooms
	progressService := service.NewProgressService(pgPool, txManager, cachedCatalog, users,
		sharedDatabase.NewPgProgressStore(logger), nil, policy, logger)

	s := seeder.NewSeeder(txManager, pgCatalog, users, progressService, cachedCatalog, logger)
	res, err := s.Run(ctx, cat)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	fmt.Printf("Seeded %d rooms and %d hints; test user %s %s\n",
		len(res.RoomIDs), res.HintCount, cat.TestUser.Email, res.UserID)
}
