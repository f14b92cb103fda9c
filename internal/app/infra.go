package app

import (
	"context"
	"errors"
	"fmt"

	"finx-auth/internal/config"
	"finx-auth/internal/db"
	"finx-auth/internal/kv"
	"finx-auth/internal/logger"
	"finx-auth/internal/redis"
)

type Infra struct {
	Store kv.Store

	DB    *db.DB
	Redis *redis.Client
}

// setupInfra opens the storage backend selected by STORE_DRIVER.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory session storage, sessions will not survive restarts", nil)
		return &Infra{Store: kv.NewMemory()}, nil

	case config.StoreFile:
		store, err := kv.NewFile(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Info("file storage ready", map[string]any{
			"path": cfg.StorePath,
		})
		return &Infra{Store: store}, nil

	case config.StoreRedis:
		redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		logger.Info("redis ready", map[string]any{
			"addr": cfg.RedisAddr,
		})
		return &Infra{
			Store: kv.NewRedis(redisClient.Client, cfg.StorePrefix),
			Redis: redisClient,
		}, nil

	case config.StorePostgres:
		database, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("database ready", nil)
		return &Infra{
			Store: kv.NewPostgres(database, cfg.StorePrefix),
			DB:    database,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
