package cache

import (
	"context"

	"github.com/brimdata/wave/pkg/storage"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type LocalCache struct {
	metrics
	engine storage.Engine
	lru    *lru.Cache[string, []byte]
}

func NewLocalCache(engine storage.Engine, size int, reg prometheus.Registerer) (*LocalCache, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		metrics: newMetrics(reg),
		engine:  engine,
		lru:     cache,
	}, nil
}

func (c *LocalCache) readFile(ctx context.Context, u *storage.URI) ([]byte, error) {
	key := u.String()
	if b, ok := c.lru.Get(key); ok {
		c.hits.WithLabelValues(string(KindLocal)).Inc()
		return b, nil
	}
	b, err := storage.Get(ctx, c.engine, u)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, b)
	c.misses.WithLabelValues(string(KindLocal)).Inc()
	return b, nil
}

func (c *LocalCache) Len() int {
	return c.lru.Len()
}
