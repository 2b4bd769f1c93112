package dump

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/alecthomas/units"
	"github.com/brimdata/wave"
	"github.com/brimdata/wave/cli/logflags"
	"github.com/brimdata/wave/cli/outputflags"
	"github.com/brimdata/wave/cli/sourceflags"
	"github.com/brimdata/wave/cmd/wave/root"
	"github.com/brimdata/wave/pkg/charm"
	"github.com/brimdata/wave/pkg/display"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/paulbellamy/ratecounter"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var Cmd = &charm.Spec{
	Name:  "dump",
	Usage: "dump [options] source-url",
	Short: "write the records of a source",
	Long: `
The dump command requests the streams given with -streams or -streams.file
for the time window given with -start and -end (or -window) from the
source named by source-url and writes the records it delivers.

Records are written unchanged with -f mseed (the default when the output
is not a terminal), as one line per record with -f text, or as one JSON
object per record with -f json.

Without an end time, realtime sources deliver records until the command
is interrupted.  The -stats option shows a live record and byte rate on
standard error.`,
	New: New,
}

type Command struct {
	*root.Command
	logFlags    logflags.Flags
	sourceFlags sourceflags.Flags
	outputFlags outputflags.Flags
	limit       int
	stats       bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.logFlags.SetFlags(f)
	c.sourceFlags.SetFlags(f)
	c.outputFlags.SetFlags(f)
	f.IntVar(&c.limit, "n", 0, "stop after this many records (0 for no limit)")
	f.BoolVar(&c.stats, "stats", false, "display record and byte rates on standard error")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init(&c.sourceFlags, &c.outputFlags)
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("dump: a single source URL is required")
	}
	logger, err := c.logFlags.Open()
	if err != nil {
		return err
	}
	defer logger.Sync()
	registry, err := c.Registry(logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	src, err := registry.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()
	if err := c.sourceFlags.Apply(src); err != nil {
		return err
	}
	w, err := c.outputFlags.Open(ctx, storage.NewLocalEngine())
	if err != nil {
		return err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			src.Close()
		case <-done:
		}
	}()
	stats := newStats()
	if c.stats {
		if term.IsTerminal(int(os.Stderr.Fd())) {
			d := display.New(stats, time.Second, os.Stderr)
			d.Start()
			defer d.Close()
		} else {
			defer stats.Display(os.Stderr)
		}
	}
	err = copyRecords(w, src, stats, c.limit)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err == nil && ctx.Err() != nil {
		logger.Info("Interrupted", zap.Int64("records", stats.Records()))
	}
	return err
}

type reader interface {
	Read() (*wave.Record, error)
}

func copyRecords(w *outputflags.Writer, r reader, stats *stats, limit int) error {
	for n := 0; limit == 0 || n < limit; n++ {
		rec, err := r.Read()
		if rec == nil || err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
		stats.add(rec)
	}
	return nil
}

// stats counts records and bytes and reports their rates.
type stats struct {
	records   int64
	bytes     int64
	recRate   *ratecounter.RateCounter
	byteRate  *ratecounter.RateCounter
	lastStart atomic.Value
}

func newStats() *stats {
	return &stats{
		recRate:  ratecounter.NewRateCounter(time.Second),
		byteRate: ratecounter.NewRateCounter(time.Second),
	}
}

func (s *stats) add(rec *wave.Record) {
	atomic.AddInt64(&s.records, 1)
	atomic.AddInt64(&s.bytes, int64(len(rec.Data)))
	s.recRate.Incr(1)
	s.byteRate.Incr(int64(len(rec.Data)))
	s.lastStart.Store(rec.Start.String())
}

func (s *stats) Records() int64 {
	return atomic.LoadInt64(&s.records)
}

func (s *stats) Display(w io.Writer) bool {
	last, _ := s.lastStart.Load().(string)
	if last == "" {
		last = "-"
	}
	fmt.Fprintf(w, "records: %d (%d/s)\n", s.Records(), s.recRate.Rate())
	fmt.Fprintf(w, "bytes:   %s (%s/s)\n", units.Base2Bytes(atomic.LoadInt64(&s.bytes)), units.Base2Bytes(s.byteRate.Rate()))
	fmt.Fprintf(w, "latest:  %s\n", last)
	return true
}
