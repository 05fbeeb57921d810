package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	generationKey    = "analytics:generation"
	idempotencyValue = "pending"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection, used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AnalyticsCache stores JSON analytics results. Every key is namespaced by
// a generation counter; bumping it orphans all cached results at once.
type AnalyticsCache struct {
	client *Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a cache whose entries expire after ttl
func NewAnalyticsCache(client *Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

func (a *AnalyticsCache) generation(ctx context.Context) (int64, error) {
	gen, err := a.client.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (a *AnalyticsCache) key(ctx context.Context, key string) (string, error) {
	gen, err := a.generation(ctx)
	if err != nil {
		return "", fmt.Errorf("read cache generation: %w", err)
	}
	return fmt.Sprintf("analytics:v%d:%s", gen, key), nil
}

// Get decodes the cached value into dest, reporting whether it was present
func (a *AnalyticsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	full, err := a.key(ctx, key)
	if err != nil {
		return false, err
	}

	raw, err := a.client.rdb.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key in the current generation
func (a *AnalyticsCache) Set(ctx context.Context, key string, value interface{}) error {
	full, err := a.key(ctx, key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	return a.client.rdb.Set(ctx, full, raw, a.ttl).Err()
}

// Invalidate bumps the generation so every cached result is recomputed
func (a *AnalyticsCache) Invalidate(ctx context.Context) error {
	return a.client.rdb.Incr(ctx, generationKey).Err()
}

// IdempotencyStore maps client supplied keys to the id of the resource
// their first request created.
type IdempotencyStore struct {
	client *Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose keys expire after ttl
func NewIdempotencyStore(client *Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}

// Claim reserves key for the caller. When the key was already claimed it
// returns the stored resource id, or 0 while the first request is in flight.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) (existingID int64, claimed bool, err error) {
	full := idempotencyKey(scope, key)

	ok, err := s.client.rdb.SetNX(ctx, full, idempotencyValue, s.ttl).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	val, err := s.client.rdb.Get(ctx, full).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Claim(ctx, scope, key)
	}
	if err != nil {
		return 0, false, err
	}
	if val == idempotencyValue {
		return 0, false, nil
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value for %s: %w", key, err)
	}
	return id, false, nil
}

// Complete records the id created under a claimed key
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string, id int64) error {
	return s.client.rdb.Set(ctx, idempotencyKey(scope, key), strconv.FormatInt(id, 10), s.ttl).Err()
}

// Release drops a claim whose request failed, so the client may retry
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	return s.client.rdb.Del(ctx, idempotencyKey(scope, key)).Err()
}
