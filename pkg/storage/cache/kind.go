// Package cache contains facilities for caching immutable files, typically
// day files of a remote SDS archive.
package cache

import (
	"fmt"
	"time"

	"github.com/brimdata/wave/pkg/storage"
)

type Cacheable func(*storage.URI) bool

type Kind string

const (
	KindNone  Kind = "none"
	KindLocal Kind = "local"
	KindRedis Kind = "redis"
)

func (k *Kind) Set(s string) error {
	switch s {
	case "none", "":
		*k = KindNone
	case "local":
		*k = KindLocal
	case "redis":
		*k = KindRedis
	default:
		return fmt.Errorf("unknown immutable cache kind: %q", s)
	}
	return nil
}

func (k Kind) String() string {
	return string(k)
}

type Config struct {
	Kind Kind
	// LocalSize is the number of objects held by a local cache.
	LocalSize int
	RedisAddr string
	// RedisKeyExpiration of zero means keys do not expire.
	RedisKeyExpiration time.Duration
}
