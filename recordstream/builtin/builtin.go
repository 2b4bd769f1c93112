// Package builtin assembles a registry holding every source type of this
// module.
package builtin

import (
	"net/http"
	"time"

	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/recordstream/balanced"
	"github.com/brimdata/wave/recordstream/combined"
	"github.com/brimdata/wave/recordstream/fdsnws"
	"github.com/brimdata/wave/recordstream/file"
	"github.com/brimdata/wave/recordstream/sdsarchive"
	"github.com/brimdata/wave/recordstream/slink"
	"go.uber.org/zap"
)

const (
	Balanced   = "balanced"
	Combined   = "combined"
	FDSNWS     = "fdsnws"
	File       = "file"
	SDSArchive = "sdsarchive"
	SeedLink   = "slink"
)

type Config struct {
	Logger  *zap.Logger
	Metrics *recordstream.Metrics
	// Engine serves file sources and defaults to a local engine.
	Engine storage.Engine
	// Archive serves SDS archives, typically a cache wrapping Engine.
	// It defaults to Engine.
	Archive storage.Engine
	// HTTPClient is used by fdsnws sources and defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
	// QueueCapacity of balanced sources.  Zero selects the default.
	QueueCapacity int
	// RealtimeAvailability of combined sources.  Zero selects the
	// default.
	RealtimeAvailability time.Duration
}

func NewRegistry(conf Config) *recordstream.Registry {
	logger := conf.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := conf.Engine
	if engine == nil {
		engine = storage.NewLocalEngine()
	}
	archive := conf.Archive
	if archive == nil {
		archive = engine
	}
	web := storage.NewHTTP(conf.HTTPClient)
	reg := recordstream.NewRegistry()
	reg.Register(File, func() recordstream.Source {
		return file.New(engine, logger.Named(File))
	})
	reg.Register(SDSArchive, func() recordstream.Source {
		return sdsarchive.New(archive, logger.Named(SDSArchive))
	})
	reg.Register(SeedLink, func() recordstream.Source {
		return slink.New(logger.Named(SeedLink))
	})
	reg.Register(FDSNWS, func() recordstream.Source {
		return fdsnws.New(web, logger.Named(FDSNWS))
	})
	reg.Register(Balanced, func() recordstream.Source {
		s := balanced.New(reg, logger.Named(Balanced), conf.Metrics)
		s.SetQueueCapacity(conf.QueueCapacity)
		return s
	})
	reg.Register(Combined, func() recordstream.Source {
		s := combined.New(reg, logger.Named(Combined), conf.Metrics)
		if conf.RealtimeAvailability > 0 {
			s.SetRealtimeAvailability(conf.RealtimeAvailability)
		}
		return s
	})
	return reg
}
