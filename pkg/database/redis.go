package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis at addr. With check set the connection is
// verified before returning.
func NewRedisClient(ctx context.Context, addr string, check bool) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if check {
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}

	slog.Info("Successfully connected to Redis.", slog.String("addr", addr))
	return client, nil
}
