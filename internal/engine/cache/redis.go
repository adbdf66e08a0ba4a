package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces bizcheck keys in a shared Redis.
const DefaultRedisPrefix = "bizcheck:cache:"

// redisScanCount is the SCAN batch size used by Clear and Stats.
const redisScanCount = 100

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	TTLSeconds int
}

// RedisStore keeps entries in Redis and lets Redis enforce expiration.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	ttlSeconds int
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return newRedisStore(client, opts.Prefix, opts.TTLSeconds), nil
}

func newRedisStore(client *redis.Client, prefix string, ttlSeconds int) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &RedisStore{client: client, prefix: prefix, ttlSeconds: ttlSeconds}
}

// Get retrieves a cache entry by key.
func (s *RedisStore) Get(ctx context.Context, key string) (*CacheEntry, error) {
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	if entry.IsExpired() {
		return nil, ErrCacheExpired
	}
	return &entry, nil
}

// Set stores data under key with the store's default TTL.
func (s *RedisStore) Set(ctx context.Context, key string, data json.RawMessage) error {
	return s.SetWithTTL(ctx, key, data, s.ttlSeconds)
}

// SetWithTTL stores data under key with an explicit TTL.
func (s *RedisStore) SetWithTTL(ctx context.Context, key string, data json.RawMessage, ttlSeconds int) error {
	if key == "" {
		return ErrInvalidCacheKey
	}

	payload, err := json.Marshal(NewCacheEntry(key, data, ttlSeconds))
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(keys []string) error {
		return s.client.Del(ctx, keys...).Err()
	})
}

// Stats counts keys under the store's prefix. SizeBytes sums STRLEN.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		Backend:    BackendRedis,
		Location:   s.client.Options().Addr + "/" + s.prefix,
		TTLSeconds: s.ttlSeconds,
	}

	err := s.scan(ctx, func(keys []string) error {
		for _, k := range keys {
			n, err := s.client.StrLen(ctx, k).Result()
			if err != nil {
				return err
			}
			stats.Entries++
			stats.SizeBytes += n
		}
		return nil
	})
	return stats, err
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", redisScanCount).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
