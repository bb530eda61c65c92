package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/linkshrink/internal/adapter/cache"
	"github.com/vadimbarashkov/linkshrink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/linkshrink/internal/config"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
	"github.com/vadimbarashkov/linkshrink/internal/metrics"
	"github.com/vadimbarashkov/linkshrink/migrations"
	"github.com/vadimbarashkov/linkshrink/pkg/postgres"

	pgrepo "github.com/vadimbarashkov/linkshrink/internal/adapter/repository/postgres"
)

const redisPingTimeout = 3 * time.Second

type urlRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementAccessCount(ctx context.Context, shortCode string) (*entity.URL, error)
	List(ctx context.Context, offset, limit int) ([]*entity.URL, int64, error)
}

func newRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (urlRepository, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, urls are lost on restart")
		return memory.NewURLRepository(), func() {}, nil
	}

	dsn := cfg.Postgres.DSN()

	db, err := postgres.New(
		ctx,
		dsn,
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrations(migrations.FS, dsn); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("err", err))
		}
	}

	return pgrepo.NewURLRepository(db, pgrepo.WithQueryTimeout(cfg.Postgres.QueryTimeout)), closeDB, nil
}

// newCache returns nil when neither cache layer is configured.
func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*cache.Tiered, func(), error) {
	var (
		local  *cache.LocalCache
		remote *cache.RedisCache
		client *redis.Client
	)

	if cfg.LocalCache.Enabled {
		var err error

		local, err = cache.NewLocalCache(cfg.LocalCache.MaxItems, cfg.LocalCache.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create local cache: %w", err)
		}
	}

	if cfg.Redis.Addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			if local != nil {
				local.Close()
			}
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		remote = cache.NewRedisCache(client, cfg.Redis.TTL)
	}

	if local == nil && remote == nil {
		return nil, func() {}, nil
	}

	tiered := cache.NewTiered(local, remote, cache.WithObserver(m), cache.WithLogger(logger))

	closeCache := func() {
		tiered.Close()
		if client != nil {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", slog.Any("err", err))
			}
		}
	}

	return tiered, closeCache, nil
}
