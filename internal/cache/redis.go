package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each blob as a plain string key.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// OpenRedis connects to addr and verifies the server answers.
func OpenRedis(ctx context.Context, addr string, db int) (*RedisBackend, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisBackend{client: client}, nil
}

func (r *RedisBackend) Read(ctx context.Context, name string) ([]byte, error) {
	value, err := r.client.Get(ctx, name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failure: %w", err)
	}
	return []byte(value), nil
}

func (r *RedisBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := r.client.Set(ctx, name, string(data), 0).Err(); err != nil {
		return fmt.Errorf("redis set failure: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
