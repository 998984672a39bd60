package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Counter backed by a redis server
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to the redis server at addr
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	r := &Redis{Client: redis.NewClient(&redis.Options{Addr: addr})}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	zap.S().Infow("connected to redis", "addr", addr)
	return r, nil
}

// Get returns the current value of key
func (r *Redis) Get(ctx context.Context, key string) (int64, bool, error) {
	v, err := r.Client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Increment increments key, setting ttl when this is the first increment
func (r *Redis) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	val, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		if err := r.Client.Expire(ctx, key, ttl).Err(); err != nil {
			return val, err
		}
	}
	return val, nil
}

// Evict removes key
func (r *Redis) Evict(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}

// Close shuts down the redis client
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.S().Errorw("redis close", "error", err)
		}
	}
}
