package root

import (
	"flag"
	"time"

	"github.com/brimdata/wave/cli"
	"github.com/brimdata/wave/cli/cacheflags"
	"github.com/brimdata/wave/pkg/charm"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/recordstream/builtin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var Wave = &charm.Spec{
	Name:  "wave",
	Usage: "wave <command> [options] [arguments...]",
	Short: "read waveform record streams",
	Long: `
wave reads MiniSEED waveform records from files, SDS archives, SeedLink
servers, FDSN dataselect web services and composites of them.

A source is named by a URL of the form type://address, e.g.,

    slink://geofon.gfz-potsdam.de:18000
    fdsnws://service.iris.edu
    sdsarchive:///data/sds
    file:///data/day.mseed??follow=true
    balanced://slink/host1:18000;slink/host2:18000
    combined://slink/host:18000;sdsarchive//data/sds??rtMax=2h

Balanced sources spread their streams over several backends and combined
sources serve old data from an archive and recent data from a realtime
server.`,
	New: New,
}

type Command struct {
	charm.Command
	cli.Flags
	CacheFlags           cacheflags.Flags
	queueCapacity        int
	realtimeAvailability time.Duration
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.SetFlags(f)
	c.CacheFlags.SetFlags(f)
	f.IntVar(&c.queueCapacity, "queue", 0, "record queue capacity of balanced sources (0 for the default)")
	f.DurationVar(&c.realtimeAvailability, "realtime", 0, "how far back realtime servers of combined sources hold data (0 for the default)")
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return charm.NeedHelp
	}
	return charm.ErrNoRun
}

// Registry returns a registry of every source type configured by the
// root flags.  Source metrics and archive cache metrics go to reg.
func (c *Command) Registry(logger *zap.Logger, reg prometheus.Registerer) (*recordstream.Registry, error) {
	engine := storage.NewLocalEngine()
	archive, err := c.CacheFlags.NewEngine(engine, reg)
	if err != nil {
		return nil, err
	}
	return builtin.NewRegistry(builtin.Config{
		Logger:               logger,
		Metrics:              recordstream.NewMetrics(reg),
		Engine:               engine,
		Archive:              archive,
		QueueCapacity:        c.queueCapacity,
		RealtimeAvailability: c.realtimeAvailability,
	}), nil
}
