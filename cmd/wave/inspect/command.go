package inspect

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/units"
	"github.com/brimdata/wave/cli/inputflags"
	"github.com/brimdata/wave/cli/logflags"
	"github.com/brimdata/wave/cmd/wave/root"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/charm"
	"github.com/brimdata/wave/pkg/storage"
	"go.uber.org/multierr"
)

var Cmd = &charm.Spec{
	Name:  "inspect",
	Usage: "inspect [options] file ...",
	Short: "decode the record headers of MiniSEED files",
	Long: `
The inspect command decodes the header of every record of the given
MiniSEED files and prints one line per record with its stream id, time
span, sample count, sampling rate, encoding, length and byte order.
Samples are not decompressed.  Records that cannot be decoded are logged
and counted.

Files may be local paths, http, https or s3 URLs, or "-" for standard
input.  With -s only the per-file totals are printed.`,
	New: New,
}

type Command struct {
	*root.Command
	logFlags   logflags.Flags
	inputFlags inputflags.Flags
	summary    bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.logFlags.SetFlags(f)
	c.inputFlags.SetFlags(f)
	f.BoolVar(&c.summary, "s", false, "print only per-file totals")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init(&c.inputFlags)
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return errors.New("inspect: no files given")
	}
	logger, err := c.logFlags.Open()
	if err != nil {
		return err
	}
	defer logger.Sync()
	engine := storage.NewLocalEngine()
	for _, path := range args {
		r, closer, err := c.inputFlags.Open(ctx, engine, path, logger)
		if err != nil {
			return err
		}
		stats, err := inspect(os.Stdout, r, c.summary)
		if err = multierr.Append(err, closer.Close()); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s: %d records, %s, %d bad records\n", path, stats.Records, units.Base2Bytes(stats.Bytes), stats.BadRecords)
	}
	return nil
}

func inspect(w io.Writer, r *mseed.Reader, summary bool) (mseed.ReadStats, error) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for {
		rec, err := r.Read()
		if err != nil {
			return r.Stats(), err
		}
		if rec == nil {
			break
		}
		if summary {
			continue
		}
		meta, err := mseed.Decode(rec.Data)
		if err != nil {
			return r.Stats(), err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%g\t%s\t%d\t%s\n",
			rec.ID, rec.Start, rec.End, rec.NumSamples,
			rec.Header.SamplingFrequency(), meta.Encoding, len(rec.Data), meta.Order)
	}
	return r.Stats(), tw.Flush()
}
