package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"museo-server/pkg/database"
	"museo-server/pkg/migration"
	"museo-server/progress-service/internal/config"
	"museo-server/progress-service/internal/handler"
	"museo-server/progress-service/internal/service"
	"museo-server/shared/authutils"
	sharedDatabase "museo-server/shared/database"
	"museo-server/shared/interfaces"
	sharedLogger "museo-server/shared/logger"
	"museo-server/shared/messaging"
	sharedMiddleware "museo-server/shared/middleware"
	"museo-server/shared/utils"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig("../../.env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	// --- External Connections ---
	ctx := context.Background()

	pgPool, err := database.ConnectPostgres(ctx, cfg.Postgres(), cfg.ConnectRetry(), logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: sharedDatabase.MigrationsPath,
		MigrationsFS:   sharedDatabase.MigrationsFS,
	}, pgPool, logger)
	if err := migrator.Up(ctx); err != nil {
		zap.L().Fatal("Failed to apply migrations", zap.Error(err))
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis(), cfg.ConnectRetry(), logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var publisher interfaces.ProgressEventPublisher
	if cfg.RabbitMQURL != "" {
		retry := cfg.ConnectRetry()
		mqConn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, retry.MaxAttempts, retry.Delay, logger)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		rmqPublisher, err := messaging.NewRabbitMQProgressPublisher(mqConn, cfg.ProgressEventsQueue, logger)
		if err != nil {
			zap.L().Fatal("Failed to create progress event publisher", zap.Error(err))
		}
		defer rmqPublisher.Close()
		publisher = rmqPublisher
	} else {
		zap.L().Warn("RabbitMQ URL not configured, progress events are disabled")
	}

	// --- Dependency Injection ---
	pgCatalog := sharedDatabase.NewPgRoomCatalog(pgPool, logger)
	catalog := sharedDatabase.NewRedisRoomCatalog(pgCatalog, redisClient, cfg.CatalogCacheTTL, logger)
	users := sharedDatabase.NewPgUserAccount(logger)
	store := sharedDatabase.NewPgProgressStore(logger)
	txManager := sharedDatabase.NewTxManager(pgPool, sharedDatabase.TxConfig{
		MaxAttempts: cfg.TxMaxAttempts,
		BaseDelay:   cfg.TxRetryBaseDelay,
		OnRetry:     service.ObserveTxRetry,
	}, logger)

	policy := service.Policy{
		Scoring: service.ScoringPolicy{
			PointsPerHint: cfg.PointsPerHint,
			PointsPerRoom: cfg.PointsPerRoom,
		},
		RequirePriorUnlock:     cfg.RequirePriorUnlock,
		BootstrapUnlockedRooms: cfg.BootstrapUnlockedRooms,
	}
	progressService := service.NewProgressService(pgPool, txManager, catalog, users, store, publisher, policy, logger)

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		zap.L().Fatal("Failed to create JWT verifier", zap.Error(err))
	}
	progressHandler := handler.NewProgressHandler(progressService, verifier, cfg.InterServiceSecret, logger)

	// Final-code attempts per user per minute.
	rateLimitStore := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: redisClient,
		Rate:        time.Minute,
		Limit:       cfg.FinalCodeRateLimit,
	})
	finalCodeLimiter := rateli.RateLimiter(rateLimitStore, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			handler.RateLimitExceeded(c, time.Until(info.ResetTime).Round(time.Second).String())
		},
		KeyFunc: handler.FinalCodeRateLimitKey,
	})

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	progressHandler.RegisterRoutes(router, finalCodeLimiter)

	// Registered after the routes so /metrics sees all of them.
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server",
		zap.String("port", cfg.ServerPort),
		zap.String("redis", cfg.RedisAddr),
		zap.String("rabbitmq", utils.MaskURLCredentials(cfg.RabbitMQURL)),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}
