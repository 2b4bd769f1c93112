package cache

import (
	"context"
	"fmt"

	"github.com/brimdata/wave/pkg/storage"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultLocalSize = 256

type fileCache interface {
	readFile(context.Context, *storage.URI) ([]byte, error)
}

// Engine wraps a storage.Engine so that Get on a cacheable URI is served
// from the cache.  Everything else passes through.
type Engine struct {
	storage.Engine
	cache     fileCache
	cacheable Cacheable
}

// New returns engine wrapped by the cache described by conf, or engine
// itself if conf.Kind is none.  A nil cacheable caches every URI.
func New(conf Config, engine storage.Engine, cacheable Cacheable, reg prometheus.Registerer) (storage.Engine, error) {
	if cacheable == nil {
		cacheable = func(*storage.URI) bool { return true }
	}
	var c fileCache
	switch conf.Kind {
	case KindNone, "":
		return engine, nil
	case KindLocal:
		size := conf.LocalSize
		if size <= 0 {
			size = DefaultLocalSize
		}
		local, err := NewLocalCache(engine, size, reg)
		if err != nil {
			return nil, err
		}
		c = local
	case KindRedis:
		client := redis.NewClient(&redis.Options{Addr: conf.RedisAddr})
		c = NewRedisCache(engine, client, conf.RedisKeyExpiration, reg)
	default:
		return nil, fmt.Errorf("unknown immutable cache kind: %q", conf.Kind)
	}
	return &Engine{Engine: engine, cache: c, cacheable: cacheable}, nil
}

func (e *Engine) Get(ctx context.Context, u *storage.URI) (storage.Reader, error) {
	if !e.cacheable(u) {
		return e.Engine.Get(ctx, u)
	}
	b, err := e.cache.readFile(ctx, u)
	if err != nil {
		return nil, err
	}
	return storage.NewBytesReader(b), nil
}

type metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return metrics{
		hits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_cache_hits_total",
				Help: "Number of hits for a cache lookup.",
			},
			[]string{"kind"},
		),
		misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_cache_misses_total",
				Help: "Number of misses for a cache lookup.",
			},
			[]string{"kind"},
		),
	}
}
