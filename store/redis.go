package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	authguard "github.com/medassur/authguard-go"
)

// Redis persists the token under a fixed key, for deployments where
// several server instances share one visitor session (BFF behind a
// load balancer). An optional TTL lets Redis expire abandoned sessions
// on its own; the guard's own expiry check remains authoritative.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// compile-time check
var _ authguard.TokenStore = (*Redis)(nil)

// RedisOption configures the Redis store.
type RedisOption func(*Redis)

// WithTTL sets a time-to-live on the stored token. Zero means no expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// NewRedis creates a Redis-backed store. key should be unique per
// principal (e.g. "authguard:token:<session-id>").
func NewRedis(client *redis.Client, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Save persists the token, overwriting any prior value.
func (r *Redis) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set: %w", err)
	}
	return nil
}

// Get returns the persisted token, or "" if absent.
func (r *Redis) Get(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("store: redis get: %w", err)
	}
	return val, nil
}

// Remove deletes the persisted token. Idempotent.
func (r *Redis) Remove(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("store: redis del: %w", err)
	}
	return nil
}
