package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis delegates to a Redis server and degrades to an embedded
// in-process cache on any connectivity failure. The fallback is
// transparent: callers cannot tell which tier served them except by
// reading the logs.
type Redis struct {
	client   *redis.Client
	prefix   string
	fallback *Memory
	logger   *slog.Logger
	timeout  time.Duration
}

// NewRedis connects to the Redis server at addr. The connection is
// verified lazily per operation, so construction always succeeds.
func NewRedis(addr string, db int, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "briefcast"
	}
	return &Redis{
		client:   redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		prefix:   prefix,
		fallback: NewMemory(0),
		logger:   logger,
		timeout:  3 * time.Second,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// Get returns the value for key, consulting the fallback when Redis is
// unreachable.
func (r *Redis) Get(key string) ([]byte, bool) {
	ctx, cancel := r.ctx()
	defer cancel()

	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("redis get failed, using fallback", "key", key, "error", err)
		return r.fallback.Get(key)
	}
	return val, true
}

// Set stores value under key with ttl, writing to the fallback when
// Redis is unreachable.
func (r *Redis) Set(key string, value []byte, ttl time.Duration) bool {
	ctx, cancel := r.ctx()
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed, using fallback", "key", key, "error", err)
		return r.fallback.Set(key, value, ttl)
	}
	return true
}

// Delete removes key from Redis, or from the fallback when Redis is
// unreachable.
func (r *Redis) Delete(key string) bool {
	ctx, cancel := r.ctx()
	defer cancel()

	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		r.logger.Warn("redis delete failed, using fallback", "key", key, "error", err)
		return r.fallback.Delete(key)
	}
	return n > 0
}

// Clear removes every key under this cache's prefix and empties the
// fallback.
func (r *Redis) Clear() bool {
	r.fallback.Clear()

	ctx, cancel := r.ctx()
	defer cancel()

	keys, err := r.client.Keys(ctx, r.prefix+":*").Result()
	if err != nil {
		r.logger.Warn("redis clear failed", "error", err)
		return false
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			r.logger.Warn("redis clear failed", "error", err)
			return false
		}
	}
	return true
}
