// Package inputflags configures the framing of MiniSEED input files.
package inputflags

import (
	"context"
	"flag"
	"io"

	"github.com/alecthomas/units"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

type Flags struct {
	// RecordLength is assumed for records without blockette 1000.
	RecordLength int
	recsize      string
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.recsize, "recsize", units.Base2Bytes(mseed.DefaultRecordLen).String(),
		"length of records without blockette 1000, as '512B' or '4KiB', etc.")
}

func (f *Flags) Init() error {
	n, err := units.ParseStrictBytes(f.recsize)
	if err != nil {
		return rserr.ErrInvalid("-recsize: %w", err)
	}
	if n < mseed.MinRecordLen || n > mseed.MaxRecordLen {
		return rserr.ErrInvalid("-recsize: %s is out of range", f.recsize)
	}
	f.RecordLength = int(n)
	return nil
}

// Open returns a reader of the records at path, which is a local path,
// a URL or "-" for standard input.
func (f *Flags) Open(ctx context.Context, engine storage.Engine, path string, logger *zap.Logger) (*mseed.Reader, io.Closer, error) {
	uri, err := storage.ParseURI(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := engine.Get(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	reader := mseed.NewReader(r, logger)
	if f.RecordLength != 0 {
		if err := reader.SetDefaultRecordLength(f.RecordLength); err != nil {
			r.Close()
			return nil, nil, err
		}
	}
	return reader, r, nil
}
