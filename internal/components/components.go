package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cleanCity/internal/api"
	"cleanCity/internal/api/handlers/http/system"
	"cleanCity/internal/config"
	"cleanCity/internal/redis"
	"cleanCity/internal/service"
	"cleanCity/internal/storage/memory"
	"cleanCity/internal/storage/postgres"
	"cleanCity/internal/storage/sqlite"
	"cleanCity/internal/storage/uploads"
	"cleanCity/internal/workers"
	"cleanCity/pkg/logger"
)

const (
	sessionKeyPrefix = "session:"
	eventQueueKey    = "reports:events"
)

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Postgres   *postgres.Postgres
	SQLite     *sqlite.SQLite
	Redis      *redis.Redis
	Webhook    *service.WebhookSender
	Sweeper    *workers.ExpiredSessionSweeper
	Janitor    *workers.UploadJanitor
}

type repositories struct {
	reports service.ReportRepository
	admins  service.AdminRepository
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{logger: logger}

	repos, err := c.initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RedisRequired() {
		logger.Info("Initializing Redis")
		c.Redis, err = redis.NewRedis(ctx, cfg, logger)
		if err != nil {
			c.ShutdownAll()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
	}

	var sessions service.SessionStore = memory.NewSessionStore()
	if cfg.Sessions.Backend == config.SessionsRedis {
		sessions = redis.NewSessionStore(c.Redis.Client, sessionKeyPrefix, nil)
	}

	var events service.EventQueue
	if cfg.WebhookEnabled() {
		queue := redis.NewEventQueue(c.Redis.Client, eventQueueKey)
		events = queue
		c.Webhook = service.NewWebhookSender(logger, cfg.Webhook, queue)
	}

	images, err := uploads.New(cfg.Uploads.Dir, logger)
	if err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to init uploads: %w", err)
	}

	if _, err := service.EnsureAdmin(ctx, repos.admins, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.BcryptCost, logger); err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	registry := service.NewSessionRegistry(repos.admins, sessions, logger, service.SessionOptions{
		TTL:      cfg.Sessions.TTL,
		HashCost: cfg.Admin.BcryptCost,
	})

	srv := service.NewService(
		service.NewReportService(repos.reports, images, events, logger, cfg.Uploads.MaxBytes),
		service.NewStatsService(repos.reports),
		registry,
	)

	c.HttpServer = api.NewServer(cfg, logger, srv, images, c.readinessChecks()...)
	c.Sweeper = workers.NewSessionSweeper(registry, cfg.Sessions.SweepInterval, logger)
	c.Janitor = workers.NewUploadJanitor(repos.reports, images, service.UploadsURLPrefix,
		cfg.Uploads.JanitorInterval, cfg.Uploads.JanitorGrace, logger)
	logger.Info("Initialized server")

	return c, nil
}

func (c *Components) initStorage(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		c.logger.Info("Initializing Postgres")
		pg, err := postgres.NewPostgres(ctx, cfg, c.logger)
		if err != nil {
			c.logger.Error("Failed to init postgres", slog.Any("error", err))
			return repositories{}, fmt.Errorf("failed to init postgres: %w", err)
		}
		c.Postgres = pg
		return repositories{reports: pg.Reports, admins: pg.Admins}, nil

	case config.StorageSQLite:
		c.logger.Info("Initializing SQLite")
		db, err := sqlite.NewSQLite(ctx, cfg.Storage.SQLitePath, c.logger, time.Now)
		if err != nil {
			c.logger.Error("Failed to init sqlite", slog.Any("error", err))
			return repositories{}, fmt.Errorf("failed to init sqlite: %w", err)
		}
		c.SQLite = db
		return repositories{reports: db.Reports, admins: db.Admins}, nil

	default:
		c.logger.Warn("Using in-memory storage, data is lost on restart")
		return repositories{reports: memory.NewReportStore(nil), admins: memory.NewAdminStore(nil)}, nil
	}
}

func (c *Components) readinessChecks() []system.Check {
	var checks []system.Check
	if c.Postgres != nil {
		checks = append(checks, system.Check{Name: "postgres", Ping: c.Postgres.Pool.Ping})
	}
	if c.SQLite != nil {
		checks = append(checks, system.Check{Name: "sqlite", Ping: c.SQLite.DB.PingContext})
	}
	if c.Redis != nil {
		checks = append(checks, system.Check{Name: "redis", Ping: c.Redis.Ping})
	}
	return checks
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Component shutdown started")

	if c.HttpServer != nil {
		c.HttpServer.Close()
	}

	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.SQLite != nil {
		if err := c.SQLite.Close(); err != nil {
			c.logger.Error("SQLite close failed", slog.String("err", err.Error()))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
