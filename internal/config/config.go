package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Feed         FeedConfig
	Storage      StorageConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer token verification and write throttling.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	RateLimitRPS          float64
	RateLimitBurst        int
}

// FeedConfig holds content limits and paging defaults.
type FeedConfig struct {
	PostMaxLength    int
	PostEditLimit    int
	CommentMaxLength int
	DefaultPageSize  int
	MaxPageSize      int
}

// StorageConfig configures the attachment blob store.
type StorageConfig struct {
	UploadDir      string
	PublicBaseURL  string
	MaxUploadBytes int64
}

// NotificationConfig controls the polled notification inbox.
type NotificationConfig struct {
	MaxPerUser int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	rateLimitRPS, err := strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_RPS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "recognition-wall"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RateLimitRPS:          rateLimitRPS,
			RateLimitBurst:        getEnvAsInt("AUTH_RATE_LIMIT_BURST", 20),
		},
		Feed: FeedConfig{
			PostMaxLength:    getEnvAsInt("FEED_POST_MAX_LENGTH", 1000),
			PostEditLimit:    getEnvAsInt("FEED_POST_EDIT_LIMIT", 2),
			CommentMaxLength: getEnvAsInt("FEED_COMMENT_MAX_LENGTH", 1000),
			DefaultPageSize:  getEnvAsInt("FEED_DEFAULT_PAGE_SIZE", 50),
			MaxPageSize:      getEnvAsInt("FEED_MAX_PAGE_SIZE", 100),
		},
		Storage: StorageConfig{
			UploadDir:      getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			PublicBaseURL:  getEnv("STORAGE_PUBLIC_BASE_URL", "/uploads"),
			MaxUploadBytes: int64(getEnvAsInt("STORAGE_MAX_UPLOAD_BYTES", 10<<20)),
		},
		Notification: NotificationConfig{
			MaxPerUser: getEnvAsInt("NOTIFY_MAX_PER_USER", 100),
		},
	}

	return cfg, nil
}

// Defaults returns a configuration suitable for the in-memory store, used by
// tests and local runs without any environment.
func Defaults() Config {
	return Config{
		App:    AppConfig{Name: "recognition-wall", Env: "test", Host: "127.0.0.1", Port: "8080", Version: "dev"},
		Logger: LoggerConfig{Level: "info"},
		Auth:   AuthConfig{JWTSecret: "dev-secret", AccessTokenTTLMinutes: 60, RateLimitRPS: 10, RateLimitBurst: 20},
		Feed: FeedConfig{
			PostMaxLength:    1000,
			PostEditLimit:    2,
			CommentMaxLength: 1000,
			DefaultPageSize:  50,
			MaxPageSize:      100,
		},
		Storage:      StorageConfig{UploadDir: "uploads", PublicBaseURL: "/uploads", MaxUploadBytes: 10 << 20},
		Notification: NotificationConfig{MaxPerUser: 100},
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
