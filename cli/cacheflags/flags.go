// Package cacheflags configures the cache of immutable SDS day files.
package cacheflags

import (
	"flag"
	"time"

	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/pkg/storage/cache"
	"github.com/brimdata/wave/recordstream/sdsarchive"
	"github.com/prometheus/client_golang/prometheus"
)

type Flags struct {
	Config cache.Config
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	f.Config.Kind = cache.KindNone
	fs.Var(&f.Config.Kind, "archive.cache", "cache of past SDS day files (values: none, local, redis)")
	fs.IntVar(&f.Config.LocalSize, "archive.cache.local.size", cache.DefaultLocalSize, "number of day files kept by a local cache")
	fs.StringVar(&f.Config.RedisAddr, "archive.cache.redis.addr", "localhost:6379", "address of the redis server of a redis cache")
	fs.DurationVar(&f.Config.RedisKeyExpiration, "archive.cache.redis.keyexpiry", 24*time.Hour, "expiration of redis cache keys (0 for none)")
}

// NewEngine wraps engine with the configured cache.  Only day files of
// days that have ended are cached.
func (f *Flags) NewEngine(engine storage.Engine, reg prometheus.Registerer) (storage.Engine, error) {
	return cache.New(f.Config, engine, sdsarchive.Immutable(time.Now), reg)
}
