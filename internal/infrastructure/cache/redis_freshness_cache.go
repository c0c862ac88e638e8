package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appsync "github.com/edusync/backend/internal/application/sync"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

const defaultFreshnessPrefix = "sync:freshness:"

// RedisFreshnessCache caches per-entity freshness snapshots in Redis.
// Suitable for distributed deployments where multiple instances serve the
// freshness endpoint off the same sync run.
type RedisFreshnessCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisFreshnessCache creates a Redis-backed freshness cache, verifying
// the connection before returning
func NewRedisFreshnessCache(cfg RedisConfig, ttl time.Duration) (*RedisFreshnessCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisFreshnessCacheWithClient(client, defaultFreshnessPrefix, ttl), nil
}

// NewRedisFreshnessCacheWithClient creates a cache over an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisFreshnessCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisFreshnessCache {
	if keyPrefix == "" {
		keyPrefix = defaultFreshnessPrefix
	}
	return &RedisFreshnessCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// GetFreshness returns the cached snapshot for the entity type, or nil on a miss
func (c *RedisFreshnessCache) GetFreshness(ctx context.Context, entity syncdomain.EntityType) (*appsync.Freshness, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+string(entity)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read freshness: %w", err)
	}

	var f appsync.Freshness
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode freshness: %w", err)
	}
	return &f, nil
}

// SetFreshness stores the snapshot with the configured TTL
func (c *RedisFreshnessCache) SetFreshness(ctx context.Context, entity syncdomain.EntityType, f *appsync.Freshness) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode freshness: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+string(entity), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write freshness: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisFreshnessCache) Close() error {
	return c.client.Close()
}

// Ensure RedisFreshnessCache implements FreshnessCache
var _ appsync.FreshnessCache = (*RedisFreshnessCache)(nil)
