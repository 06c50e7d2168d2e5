package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds the last fetched rate. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context) (*Rate, error)
	Set(ctx context.Context, rate Rate, ttl time.Duration) error
}

const cacheKey = "brokerdesk:currency:usd"

// RedisCache stores the rate as JSON under a single key with a TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a connected Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context) (*Rate, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached rate: %w", err)
	}

	var rate Rate
	if err := json.Unmarshal(raw, &rate); err != nil {
		return nil, fmt.Errorf("failed to decode cached rate: %w", err)
	}
	return &rate, nil
}

func (c *RedisCache) Set(ctx context.Context, rate Rate, ttl time.Duration) error {
	raw, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to encode rate: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
