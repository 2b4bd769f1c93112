package cache

import (
	"context"
	"errors"
	"time"

	"github.com/brimdata/wave/pkg/storage"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type RedisCache struct {
	metrics
	engine storage.Engine
	expiry time.Duration
	client redisClient
}

func NewRedisCache(engine storage.Engine, client redisClient, expiry time.Duration, reg prometheus.Registerer) *RedisCache {
	return &RedisCache{
		metrics: newMetrics(reg),
		engine:  engine,
		expiry:  expiry,
		client:  client,
	}
}

func (c *RedisCache) readFile(ctx context.Context, u *storage.URI) ([]byte, error) {
	res := c.client.Get(ctx, u.String())
	if err := res.Err(); err == nil {
		c.hits.WithLabelValues(string(KindRedis)).Inc()
		return res.Bytes()
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	b, err := storage.Get(ctx, c.engine, u)
	if err != nil {
		return nil, err
	}
	c.misses.WithLabelValues(string(KindRedis)).Inc()
	return b, c.client.Set(ctx, u.String(), b, c.expiry).Err()
}
