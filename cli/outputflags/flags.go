// Package outputflags selects where and how commands write records.
package outputflags

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/rserr"
	"golang.org/x/term"
)

const (
	FormatMiniSEED = "mseed"
	FormatText     = "text"
	FormatJSON     = "json"
)

type Flags struct {
	Format      string
	outputFile  string
	forceBinary bool
	force       bool
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.Format, "f", FormatMiniSEED, "format of output records [mseed,text,json]")
	fs.StringVar(&f.outputFile, "o", "", "write records to output file")
	fs.BoolVar(&f.forceBinary, "B", false, "allow binary records to be sent to a terminal")
	fs.BoolVar(&f.force, "force", false, "overwrite an existing output file")
}

func (f *Flags) Init() error {
	switch f.Format {
	case FormatMiniSEED, FormatText, FormatJSON:
	default:
		return rserr.ErrInvalid("unknown output format %q", f.Format)
	}
	if f.outputFile == "-" {
		f.outputFile = ""
	}
	if f.outputFile == "" && f.Format == FormatMiniSEED && !f.forceBinary && term.IsTerminal(int(os.Stdout.Fd())) {
		f.Format = FormatText
	}
	return nil
}

func (f *Flags) FileName() string {
	return f.outputFile
}

// Open opens the output through engine.  Standard output is used when no
// output file was given.
func (f *Flags) Open(ctx context.Context, engine storage.Engine) (*Writer, error) {
	path := f.outputFile
	if path == "" {
		path = "-"
	}
	uri, err := storage.ParseURI(path)
	if err != nil {
		return nil, err
	}
	if path != "-" && !f.force {
		ok, err := engine.Exists(ctx, uri)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, rserr.ErrInvalid("output %s exists (use -force to overwrite)", uri)
		}
	}
	w, err := engine.Put(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewWriter(w, f.Format), nil
}

// Writer writes records in one of the output formats.
type Writer struct {
	w      io.WriteCloser
	format string
	enc    *json.Encoder
}

func NewWriter(w io.WriteCloser, format string) *Writer {
	return &Writer{w: w, format: format, enc: json.NewEncoder(w)}
}

type jsonRecord struct {
	ID           string  `json:"id"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Samples      int     `json:"samples"`
	SamplingRate float64 `json:"sampling_rate"`
	DataType     string  `json:"data_type"`
	Length       int     `json:"length"`
}

func (w *Writer) Write(rec *wave.Record) error {
	switch w.format {
	case FormatText:
		_, err := fmt.Fprintln(w.w, rec)
		return err
	case FormatJSON:
		return w.enc.Encode(jsonRecord{
			ID:           rec.ID.String(),
			Start:        rec.Start.String(),
			End:          rec.End.String(),
			Samples:      rec.NumSamples,
			SamplingRate: rec.Header.SamplingFrequency(),
			DataType:     rec.Header.DataType.String(),
			Length:       len(rec.Data),
		})
	}
	_, err := w.w.Write(rec.Data)
	return err
}

func (w *Writer) Close() error {
	return w.w.Close()
}
