// Package cache keeps short-lived shared state in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventia/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	upiSettingsKey        = "eventia:upi_settings:active"
	upiSettingsGenKey     = "eventia:upi_settings:generation"
	defaultUpiSettingsTTL = time.Minute
)

// Client is the subset of the Redis API used by the cache and the idempotency middleware.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// UpiSettingsCache stores the active UPI settings row as JSON, tagged with the
// invalidation generation it was loaded under. Entries from an older generation
// are treated as misses.
type UpiSettingsCache struct {
	client Client
	ttl    time.Duration
}

func NewUpiSettingsCache(client Client, ttl time.Duration) *UpiSettingsCache {
	if ttl <= 0 {
		ttl = defaultUpiSettingsTTL
	}
	return &UpiSettingsCache{client: client, ttl: ttl}
}

type cachedUpiSettings struct {
	Generation int64              `json:"generation"`
	Settings   models.UpiSettings `json:"settings"`
}

// Generation returns the current invalidation generation. Read it before
// loading the row that is later passed to Set.
func (c *UpiSettingsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, upiSettingsGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *UpiSettingsCache) Get(ctx context.Context) (models.UpiSettings, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return models.UpiSettings{}, false, err
	}
	raw, err := c.client.Get(ctx, upiSettingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.UpiSettings{}, false, nil
	}
	if err != nil {
		return models.UpiSettings{}, false, err
	}
	var entry cachedUpiSettings
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = c.client.Del(ctx, upiSettingsKey).Err()
		return models.UpiSettings{}, false, fmt.Errorf("decode cached upi settings: %w", err)
	}
	if entry.Generation != gen {
		return models.UpiSettings{}, false, nil
	}
	return entry.Settings, true, nil
}

// Set caches settings loaded under generation.
func (c *UpiSettingsCache) Set(ctx context.Context, settings models.UpiSettings, generation int64) error {
	raw, err := json.Marshal(cachedUpiSettings{Generation: generation, Settings: settings})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, upiSettingsKey, raw, c.ttl).Err()
}

// Invalidate bumps the generation so in-flight loads cannot repopulate the
// entry with the old row, then drops the entry.
func (c *UpiSettingsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, upiSettingsGenKey).Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, upiSettingsKey).Err()
}
