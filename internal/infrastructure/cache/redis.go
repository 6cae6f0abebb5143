package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"rewardhub/internal/config"
	"rewardhub/internal/logger"
)

// NewRedis connects and pings with a five second budget.
func NewRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr(), err)
	}

	logger.Info("redis connected", "addr", cfg.Addr(), "db", cfg.DB)
	return client, nil
}
