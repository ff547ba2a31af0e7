package main

import (
	"context"
	"fmt"
	"log/slog"

	"regdesk/internal/platform/config"
	"regdesk/internal/platform/migrations"
	"regdesk/internal/platform/redis"
	"regdesk/internal/registration/service"
	"regdesk/internal/registration/store/file"
	"regdesk/internal/registration/store/memory"
	"regdesk/internal/registration/store/postgres"
	redisstore "regdesk/internal/registration/store/redis"
	"regdesk/internal/registration/store/sqlite"
)

// registry is what serve needs from a backend.
type registry interface {
	service.Registry
	Ping(ctx context.Context) error
	Close() error
}

func openRegistry(ctx context.Context, cfg config.Config, logger *slog.Logger) (registry, error) {
	switch cfg.Registry.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		return file.Open(cfg.Registry.FilePath)
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.Registry.SQLitePath, logger)
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Registry.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.Registry.AutoMigrate {
			if _, err := migrations.Up(ctx, db, migrations.Postgres, logger); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return postgres.New(db), nil
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
		}
		return redisstore.New(client.Client, redisstore.WithPrefix(cfg.Redis.KeyPrefix)), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}
}
