package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/converswp/trustbadges/internal/config"
)

// redisConnectRetries is how many times the startup ping to Redis is retried.
const redisConnectRetries = 5

// NewRedis creates a new Redis client from the given config. It parses the
// URL, connects, and pings to verify connectivity before returning.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}

	if err := retry(ping, "redis", redisConnectRetries); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}
