package kvstore

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallimar/bookvault/internal/config"
	"github.com/hallimar/bookvault/internal/core"
)

// RedisStore implements core.KVStore using Redis. It also implements
// core.ListStore, which the redis ingest queue depends on.
type RedisStore struct {
	client *redis.Client
	closed atomic.Bool
}

// NewRedisStore connects to a single-node Redis and verifies the
// connection with a ping.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	opts := &redis.Options{
		Addr:         cfg.Endpoints[0],
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get retrieves a value by key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed.Load() {
		return nil, core.ErrClosed
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set stores a key-value pair with an optional TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.closed.Load() {
		return core.ErrClosed
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[REDIS] set %s failed: %v", key, err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return core.ErrClosed
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks whether a key exists.
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	if r.closed.Load() {
		return false, core.ErrClosed
	}

	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence of key %s: %w", key, err)
	}
	return count > 0, nil
}

// BatchSet stores multiple key-value pairs through a pipeline.
func (r *RedisStore) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if r.closed.Load() {
		return core.ErrClosed
	}

	pipe := r.client.Pipeline()
	for key, value := range items {
		pipe.Set(ctx, key, value, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to batch set keys: %w", err)
	}
	return nil
}

// Close closes the connection.
func (r *RedisStore) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.client.Close()
}

// ListPush appends a value to the end of a list (RPUSH).
func (r *RedisStore) ListPush(ctx context.Context, key string, value []byte) error {
	if r.closed.Load() {
		return core.ErrClosed
	}
	return r.client.RPush(ctx, key, value).Err()
}

// ListPop removes and returns the first element of a list (LPOP).
// Returns (nil, nil) when the list is empty.
func (r *RedisStore) ListPop(ctx context.Context, key string) ([]byte, error) {
	if r.closed.Load() {
		return nil, core.ErrClosed
	}
	val, err := r.client.LPop(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

// ListLength returns the length of a list (LLEN).
func (r *RedisStore) ListLength(ctx context.Context, key string) (int64, error) {
	if r.closed.Load() {
		return 0, core.ErrClosed
	}
	return r.client.LLen(ctx, key).Result()
}

// redisFactory implements Factory for Redis.
type redisFactory struct{}

func (f *redisFactory) Type() string {
	return "redis"
}

func (f *redisFactory) Validate(cfg Config) error {
	if cfg.Type != "redis" {
		return fmt.Errorf("invalid type for redis factory: %s", cfg.Type)
	}
	if len(cfg.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for redis")
	}
	if cfg.DB < 0 || cfg.DB > 15 {
		return fmt.Errorf("redis DB must be between 0 and 15, got: %d", cfg.DB)
	}
	if cfg.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", cfg.PoolSize)
	}
	if cfg.DialTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return fmt.Errorf("dial, read, and write timeouts must be greater than 0")
	}
	return nil
}

func (f *redisFactory) Create(cfg Config) (core.KVStore, error) {
	store, err := NewRedisStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store: %w", err)
	}
	return store, nil
}

// redisConfigValidator validates the redis section of the client
// configuration.
type redisConfigValidator struct{}

func (v *redisConfigValidator) Type() string {
	return "redis"
}

func (v *redisConfigValidator) Validate(cfg *config.Internal) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	cache := cfg.Cache
	if cache.Type != "redis" {
		return fmt.Errorf("invalid type for redis validator: %s", cache.Type)
	}
	if len(cache.Redis.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for redis")
	}
	if cache.Redis.DB < 0 || cache.Redis.DB > 15 {
		return fmt.Errorf("redis DB must be between 0 and 15, got: %d", cache.Redis.DB)
	}
	if cache.Redis.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", cache.Redis.PoolSize)
	}
	if cache.DialTimeout <= 0 || cache.ReadTimeout <= 0 || cache.WriteTimeout <= 0 {
		return fmt.Errorf("dial, read, and write timeouts must be greater than 0")
	}
	return nil
}

func init() {
	RegisterFactory(&redisFactory{})
	config.RegisterValidator(&redisConfigValidator{})
}
