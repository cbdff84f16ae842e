package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	pkgdb "museo-server/pkg/database"
	"museo-server/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the progress service configuration.
// Fields without envconfig tags are read from secret files.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8085"`

	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBPassword    string

	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
	RedisPassword   string

	// RabbitMQURL comes from the rabbitmq_url secret or RABBITMQ_URL; empty disables events.
	RabbitMQURL         string
	ProgressEventsQueue string `envconfig:"PROGRESS_EVENTS_QUEUE" default:"progress_events"`

	JWTSecret          string
	InterServiceSecret string

	CORSAllowedOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	FinalCodeRateLimit uint          `envconfig:"FINAL_CODE_RATE_LIMIT" default:"10"`
	ConnectMaxRetries  int           `envconfig:"CONNECT_MAX_RETRIES" default:"50"`
	ConnectRetryDelay  time.Duration `envconfig:"CONNECT_RETRY_DELAY" default:"3s"`

	ProgressConfig
}

// ProgressConfig holds the scoring and unlock policy.
type ProgressConfig struct {
	PointsPerHint          int           `envconfig:"POINTS_PER_HINT" default:"30"`
	PointsPerRoom          int           `envconfig:"POINTS_PER_ROOM" default:"100"`
	RequirePriorUnlock     bool          `envconfig:"REQUIRE_PRIOR_UNLOCK" default:"false"`
	BootstrapUnlockedRooms int           `envconfig:"BOOTSTRAP_UNLOCKED_ROOMS" default:"1"`
	TxMaxAttempts          int           `envconfig:"TX_MAX_ATTEMPTS" default:"3"`
	TxRetryBaseDelay       time.Duration `envconfig:"TX_RETRY_BASE_DELAY" default:"20ms"`
}

// GetAllowedOrigins splits CORSAllowedOrigins on commas.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// Postgres returns the connection settings for pkg/database.
func (c *Config) Postgres() pkgdb.PostgresConfig {
	return pkgdb.PostgresConfig{
		Host:        c.DBHost,
		Port:        c.DBPort,
		User:        c.DBUser,
		Password:    c.DBPassword,
		DBName:      c.DBName,
		SSLMode:     c.DBSSLMode,
		MaxConns:    c.DBMaxConns,
		IdleTimeout: c.DBIdleTimeout,
	}
}

// Redis returns the connection settings for pkg/database.
func (c *Config) Redis() pkgdb.RedisConfig {
	return pkgdb.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// ConnectRetry returns how long to wait for dependencies at startup.
func (c *Config) ConnectRetry() pkgdb.Retry {
	return pkgdb.Retry{MaxAttempts: c.ConnectMaxRetries, Delay: c.ConnectRetryDelay}
}

// Validate rejects policy values that would break scoring or unlocking.
func (p ProgressConfig) Validate() error {
	if p.PointsPerHint < 0 || p.PointsPerRoom < 0 {
		return fmt.Errorf("point values must not be negative (hint=%d, room=%d)", p.PointsPerHint, p.PointsPerRoom)
	}
	if p.BootstrapUnlockedRooms < 1 {
		return fmt.Errorf("BOOTSTRAP_UNLOCKED_ROOMS must be at least 1, got %d", p.BootstrapUnlockedRooms)
	}
	if p.TxMaxAttempts < 1 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1, got %d", p.TxMaxAttempts)
	}
	return nil
}

// LoadConfig loads configuration from an optional .env file, environment variables and secret files.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	if err := cfg.ProgressConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid progress policy: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.InterServiceSecret, loadErr = utils.ReadSecret("inter_service_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.RedisPassword = utils.ReadOptionalSecret("redis_password", "")
	cfg.RabbitMQURL = utils.ReadOptionalSecret("rabbitmq_url", os.Getenv("RABBITMQ_URL"))
	if cfg.RabbitMQURL == "" {
		log.Println("RabbitMQ URL not configured, progress events will not be published.")
	}

	log.Println("Configuration loaded successfully (secrets read from files).")
	return &cfg, nil
}
