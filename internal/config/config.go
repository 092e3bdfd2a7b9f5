package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

type Config struct {
	Env      string         `json:"env"`
	Http     HttpConfig     `json:"http"`
	Storage  StorageConfig  `json:"storage"`
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	Sessions SessionConfig  `json:"sessions"`
	Uploads  UploadConfig   `json:"uploads"`
	Admin    AdminConfig    `json:"admin"`
	Webhook  WebhookConfig  `json:"webhook"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver     string `json:"driver"`
	SQLitePath string `json:"sqlite_path"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

type SessionConfig struct {
	Backend       string        `json:"backend"`
	TTL           time.Duration `json:"ttl"`
	SweepInterval time.Duration `json:"sweep_interval"`
}

type UploadConfig struct {
	Dir             string        `json:"dir"`
	MaxBytes        int64         `json:"max_bytes"`
	JanitorInterval time.Duration `json:"janitor_interval"`
	JanitorGrace    time.Duration `json:"janitor_grace"`
}

type AdminConfig struct {
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	BcryptCost int    `json:"bcrypt_cost"`
}

type WebhookConfig struct {
	URL      string `json:"url"`
	Disabled bool   `json:"disabled"`
}

// RedisRequired reports whether any configured component talks to Redis.
func (c *Config) RedisRequired() bool {
	return c.Sessions.Backend == SessionsRedis || c.WebhookEnabled()
}

func (c *Config) WebhookEnabled() bool {
	return !c.Webhook.Disabled && c.Webhook.URL != ""
}

func LoadConfig() (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", StorageMemory),
			SQLitePath: getEnv("SQLITE_PATH", "./cleancity.db"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "cleancity_db"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        20,
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis-local:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Sessions: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", SessionsMemory),
			TTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		},
		Uploads: UploadConfig{
			Dir:             getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes:        getEnvInt64("UPLOAD_MAX_BYTES", 10*1024*1024),
			JanitorInterval: getEnvDuration("UPLOAD_JANITOR_INTERVAL", 0),
			JanitorGrace:    getEnvDuration("UPLOAD_JANITOR_GRACE", time.Hour),
		},
		Admin: AdminConfig{
			Email:      getEnv("ADMIN_EMAIL", "admin@garbagetracker.com"),
			Password:   getEnv("ADMIN_PASSWORD", "admin123"),
			BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		},
		Webhook: WebhookConfig{
			URL:      getEnv("WEBHOOK_URL", ""),
			Disabled: getEnvBool("WEBHOOK_DISABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("session_backend", cfg.Sessions.Backend),
		slog.String("upload_dir", cfg.Uploads.Dir),
		slog.Bool("webhook_enabled", cfg.WebhookEnabled()))

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.Host == "" {
			return errors.New("POSTGRES_HOST required")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, postgres, sqlite; got %q", c.Storage.Driver)
	}

	switch c.Sessions.Backend {
	case SessionsMemory, SessionsRedis:
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory or redis; got %q", c.Sessions.Backend)
	}
	if c.Sessions.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	if c.RedisRequired() && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR required")
	}

	if c.Uploads.Dir == "" {
		return errors.New("UPLOAD_DIR required")
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}

	if c.Admin.Email == "" || c.Admin.Password == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD required")
	}
	if c.Admin.BcryptCost < bcrypt.MinCost || c.Admin.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
