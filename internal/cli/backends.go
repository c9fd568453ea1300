package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-performance-service/internal/app"
	"quiz-performance-service/internal/config"
	"quiz-performance-service/internal/infra/memory"
	"quiz-performance-service/internal/infra/postgres"
	infraredis "quiz-performance-service/internal/infra/redis"
	"quiz-performance-service/internal/infra/sqlite"
)

// attemptStore is what every backing store provides.
type attemptStore interface {
	memory.AttemptLoader
	app.AttemptRecorder
	app.FeedbackRepository
}

// loadConfig reads the YAML config. A missing file yields the zero config so the
// service can run on defaults.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Config{}, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	// Flags win over the config file.
	if logLevel == "" && logFormat == "" && (cfg.Log.Level != "" || cfg.Log.Format != "") {
		if err := configureLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// buildService selects the backing store (Postgres, then SQLite, then built-in sample
// data) and the cache (Redis or in memory). The returned cleanup closes connections.
func buildService(ctx context.Context, cfg config.Config) (*app.PerformanceService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store attemptStore
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, cleanup, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		store = postgres.NewAttemptStore(pool)
		slog.Info("using postgres attempt store")
	case cfg.SQLite.Path != "":
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				slog.Warn("close sqlite", "error", err)
			}
		})
		store = db
		slog.Info("using sqlite attempt store", "path", cfg.SQLite.Path)
	default:
		store = memory.NewStaticSource(sampleAttempts(), sampleFeedback())
		slog.Info("using built-in sample attempts")
	}

	attemptsTTL := config.TTLDuration(cfg.Attempts.TTL, 10*time.Minute)
	var (
		attempts app.AttemptRepository
		feeds    app.FeedRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		attempts = infraredis.NewAttemptRepository(client, store, attemptsTTL)
		feeds = infraredis.NewFeedStore(client)
		slog.Info("using redis cache", "addr", cfg.Redis.Addr)
	} else {
		attempts = memory.NewAttemptRepository(store, attemptsTTL)
		feeds = memory.NewFeedStore()
	}

	return app.NewPerformanceService(attempts, store, store, feeds), cleanup, nil
}
