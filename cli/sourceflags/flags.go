// Package sourceflags selects the streams and time window requested from
// a record stream source.
package sourceflags

import (
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"gopkg.in/yaml.v3"
)

// File is the layout of a -streams.file YAML file:
//
//	window: 2021-01-01~2021-01-02
//	streams:
//	  - id: {net: GE, sta: APE, loc: "", cha: BHZ}
//	  - id: {net: IU, sta: ANMO, loc: "00", cha: LH?}
//	    window: 2021-01-01T12:00:00Z~
type File struct {
	Window  nano.Window                  `yaml:"window,omitempty"`
	Streams []recordstream.StreamRequest `yaml:"streams"`
}

type Flags struct {
	Streams []recordstream.StreamRequest
	Window  nano.Window
	Timeout time.Duration

	streams string
	file    string
	start   string
	end     string
	window  string
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.streams, "streams", "", "comma-separated stream ids NET.STA.LOC.CHA (wildcards * and ? allowed)")
	fs.StringVar(&f.file, "streams.file", "", "YAML file of streams and time windows")
	fs.StringVar(&f.start, "start", "", "start of the time window")
	fs.StringVar(&f.end, "end", "", "end of the time window")
	fs.StringVar(&f.window, "window", "", "time window as start~end (instead of -start and -end)")
	fs.DurationVar(&f.Timeout, "timeout", 0, "timeout of blocking source operations (0 for none)")
}

func (f *Flags) Init() error {
	if f.file != "" {
		file, err := LoadFile(f.file)
		if err != nil {
			return err
		}
		f.Window = file.Window
		f.Streams = append(f.Streams, file.Streams...)
	}
	if f.streams != "" {
		for _, s := range strings.Split(f.streams, ",") {
			id, err := wave.ParseStreamID(strings.TrimSpace(s))
			if err != nil {
				return rserr.E(rserr.Invalid, err)
			}
			f.Streams = append(f.Streams, recordstream.StreamRequest{ID: id})
		}
	}
	if f.window != "" {
		if f.start != "" || f.end != "" {
			return rserr.ErrInvalid("-window cannot be used with -start or -end")
		}
		w, err := recordstream.ParseWindow(f.window)
		if err != nil {
			return err
		}
		f.Window = w
	}
	if err := parseTime(f.start, &f.Window.Start); err != nil {
		return err
	}
	if err := parseTime(f.end, &f.Window.End); err != nil {
		return err
	}
	if !f.Window.Valid() {
		return rserr.ErrInvalid("time window %s ends before it starts", f.Window)
	}
	if f.Timeout < 0 {
		return rserr.ErrInvalid("negative timeout %s", f.Timeout)
	}
	return nil
}

func parseTime(s string, ts *nano.Ts) error {
	if s == "" {
		return nil
	}
	t, err := nano.ParseTime(s)
	if err != nil {
		return rserr.E(rserr.Invalid, err)
	}
	*ts = t
	return nil
}

func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file File
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, rserr.E(rserr.Invalid, err)
	}
	for _, s := range file.Streams {
		if s.ID.Network == "" || s.ID.Station == "" {
			return nil, rserr.ErrInvalid("%s: stream %s: network and station required", path, s.ID)
		}
	}
	return &file, nil
}

// Apply configures s with the streams, window and timeout of the flags.
func (f *Flags) Apply(s recordstream.Source) error {
	if len(f.Streams) == 0 {
		return errors.New("no streams requested (use -streams or -streams.file)")
	}
	if err := s.SetTimeWindow(f.Window); err != nil {
		return err
	}
	for _, sr := range f.Streams {
		if err := s.AddStreamWindow(sr.ID, sr.Window); err != nil {
			return err
		}
	}
	return s.SetTimeout(f.Timeout)
}
