package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PostgresConfig holds connection settings for the pgx pool.
type PostgresConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	IdleTimeout time.Duration
}

// DSN builds a postgres:// connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig holds connection settings for the Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Retry controls how long the connect helpers keep trying.
type Retry struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetry waits for dependencies started alongside the service.
var DefaultRetry = Retry{MaxAttempts: 50, Delay: 3 * time.Second}

// ConnectPostgres creates a pgx pool and pings it, retrying until the database answers.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig, retry Retry, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	logger.Info("Attempting to connect to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("max_retries", retry.MaxAttempts),
		zap.Duration("retry_delay", retry.Delay),
	)

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
			err = pool.Ping(pingCtx)
			pingCancel()
			if err == nil {
				logger.Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}

		lastErr = err
		logger.Warn("PostgreSQL not ready, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.MaxAttempts),
			zap.Error(err),
		)
		if attempt < retry.MaxAttempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", retry.MaxAttempts, lastErr)
}

// ConnectRedis creates a Redis client and pings it, retrying until the server answers.
func ConnectRedis(ctx context.Context, cfg RedisConfig, retry Retry, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	logger.Info("Attempting to connect to Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB))

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			logger.Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()

		lastErr = err
		logger.Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.MaxAttempts),
			zap.Error(err),
		)
		if attempt < retry.MaxAttempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", retry.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
