package recordstream

import (
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/rserr"
)

// StreamRequest is one stream added to a Source.  Unset sides of Window
// fall back to the overall time window of the request.
type StreamRequest struct {
	ID     wave.StreamID `yaml:"id"`
	Window nano.Window   `yaml:"window,omitempty"`
}

// A Request collects what a Source has been asked for.  Backends embed it
// to implement the setters of Source and use Match to select the records
// they deliver.
type Request struct {
	Streams    []StreamRequest
	Window     nano.Window
	Timeout    time.Duration
	RecordType string
}

func (r *Request) AddStream(id wave.StreamID) error {
	return r.AddStreamWindow(id, nano.Window{})
}

func (r *Request) AddStreamWindow(id wave.StreamID, w nano.Window) error {
	if id.Network == "" || id.Station == "" {
		return rserr.ErrInvalid("stream %q: network and station required", id)
	}
	if !w.Valid() {
		return rserr.ErrInvalid("stream %s: time window %s ends before it starts", id, w)
	}
	r.Streams = append(r.Streams, StreamRequest{ID: id, Window: w})
	return nil
}

func (r *Request) SetStartTime(ts nano.Ts) error {
	w := r.Window
	w.Start = ts
	return r.SetTimeWindow(w)
}

func (r *Request) SetEndTime(ts nano.Ts) error {
	w := r.Window
	w.End = ts
	return r.SetTimeWindow(w)
}

func (r *Request) SetTimeWindow(w nano.Window) error {
	if !w.Valid() {
		return rserr.ErrInvalid("time window %s ends before it starts", w)
	}
	r.Window = w
	return nil
}

func (r *Request) SetTimeout(d time.Duration) error {
	if d < 0 {
		return rserr.ErrInvalid("negative timeout %s", d)
	}
	r.Timeout = d
	return nil
}

func (r *Request) SetRecordType(typ string) error {
	if typ != "" && typ != RecordTypeMiniSEED {
		return rserr.ErrInvalid("unsupported record type %q", typ)
	}
	r.RecordType = typ
	return nil
}

// StreamWindow returns the effective time window of s.
func (r *Request) StreamWindow(s StreamRequest) nano.Window {
	w := s.Window
	if !w.HasStart() {
		w.Start = r.Window.Start
	}
	if !w.HasEnd() {
		w.End = r.Window.End
	}
	return w
}

// Match returns true if rec belongs to a requested stream and has samples
// within that stream's window.  With no streams added, every stream
// matches.
func (r *Request) Match(rec *wave.Record) bool {
	last := rec.End
	if last > rec.Start {
		last--
	}
	if len(r.Streams) == 0 {
		return r.Window.Overlaps(rec.Start, last)
	}
	for _, s := range r.Streams {
		if s.ID.Match(rec.ID) && r.StreamWindow(s).Overlaps(rec.Start, last) {
			return true
		}
	}
	return false
}
