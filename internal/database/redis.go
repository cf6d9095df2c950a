package database

import (
	"context"
	"fmt"

	"go-shop-api/config"
	"go-shop-api/internal/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient creates and returns a new Redis client based on the provided configuration.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	logger.Get().WithFields(logrus.Fields{"addr": cfg.Addr, "db": cfg.DB}).Info("Successfully connected to Redis")
	return rdb, nil
}

// NewLocker returns a distributed lock client sharing the Redis connection.
func NewLocker(rdb *redis.Client) *redislock.Client {
	return redislock.New(rdb)
}
