package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"classhub.org/internal/obs"
)

// Redis is the distributed backend. Failures to reach redis surface as
// Unavailable results so callers can degrade to a soft miss instead of
// treating an outage as "key absent".
type Redis struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedis connects to redis and verifies the connection with a ping so
// that startup fallback can detect an unreachable server immediately.
func NewRedis(ctx context.Context, cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{
		client:     client,
		prefix:     cfg.RedisPrefix,
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + key
}

func (r *Redis) Get(ctx context.Context, key string) Result {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	switch {
	case err == nil:
		obs.CacheRequest(KindRedis, "hit")
		return Result{State: Found, Value: value}
	case errors.Is(err, redis.Nil):
		obs.CacheRequest(KindRedis, "miss")
		return Result{State: NotFound}
	default:
		obs.CacheRequest(KindRedis, "unavailable")
		obs.Logger().Warn("redis get failed",
			zap.String("key", key),
			zap.Error(err))
		return Result{State: Unavailable}
	}
}

func (r *Redis) Insert(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// InvalidateAll is unsupported: the keyspace is shared across instances
// and a prefix scan under load is not worth the blast radius.
func (r *Redis) InvalidateAll(context.Context) error {
	obs.Logger().Warn("invalidate_all is not supported by the redis backend")
	return nil
}

func (r *Redis) SupportsPerEntryTTL() bool { return true }

func (r *Redis) Name() string { return KindRedis }

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }
