// Package file implements a Source that reads MiniSEED records from a
// file or, for the address "-", from stdin.
//
// The address parameter follow=true keeps reading as the file grows,
// until Close is called:
//
//	file:///data/live.mseed??follow=true
package file

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/fs"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

type Source struct {
	recordstream.Request
	engine storage.Engine
	logger *zap.Logger
	uri    *storage.URI
	follow bool
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	closer  io.Closer
	records *mseed.Reader
}

var _ recordstream.Source = (*Source)(nil)

func New(engine storage.Engine, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		engine: engine,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Source) SetSource(address string) error {
	path, params, err := recordstream.SplitParams(address)
	if err != nil {
		return err
	}
	follow := false
	for k, v := range params {
		if k != "follow" {
			return rserr.ErrInvalid("file source: unknown parameter %q", k)
		}
		if follow, err = strconv.ParseBool(v); err != nil {
			return rserr.ErrInvalid("file source: follow=%q is not a boolean", v)
		}
	}
	if path == "" {
		return rserr.ErrInvalid("file source: empty path")
	}
	uri, err := storage.ParseURI(path)
	if err != nil {
		return rserr.E(rserr.Invalid, err)
	}
	if follow && !uri.HasScheme(storage.FileScheme) {
		return rserr.ErrInvalid("file source: only local files can be followed")
	}
	s.uri = uri
	s.follow = follow
	return nil
}

func (s *Source) open() (*mseed.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil
	}
	if s.records != nil {
		return s.records, nil
	}
	if s.uri == nil {
		return nil, rserr.ErrInvalid("file source: no path set")
	}
	var r io.ReadCloser
	if s.follow {
		tf, err := fs.TailFile(s.uri.Filepath())
		if err != nil {
			return nil, err
		}
		r = tf
	} else {
		sr, err := s.engine.Get(s.ctx, s.uri)
		if err != nil {
			return nil, err
		}
		r = sr
	}
	s.logger.Debug("Opened file", zap.Stringer("uri", s.uri), zap.Bool("follow", s.follow))
	s.closer = r
	s.records = mseed.NewReader(r, s.logger)
	return s.records, nil
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Read returns the next record matching the requested streams and time
// window.
func (s *Source) Read() (*wave.Record, error) {
	records, err := s.open()
	if records == nil || err != nil {
		return nil, err
	}
	for {
		rec, err := records.Read()
		if s.isClosed() {
			return nil, nil
		}
		if rec == nil || err != nil {
			return nil, err
		}
		if s.Match(rec) {
			return rec, nil
		}
	}
}

// Stats returns the framing statistics of the file read so far.  It must
// not be called concurrently with Read.
func (s *Source) Stats() mseed.ReadStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		return mseed.ReadStats{}
	}
	return s.records.Stats()
}

func (s *Source) Close() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
