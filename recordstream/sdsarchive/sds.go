// Package sdsarchive implements a Source that reads day files of a
// SeisComP Data Structure archive.  Files are laid out as
//
//	ROOT/YEAR/NET/STA/CHA.D/NET.STA.LOC.CHA.D.YEAR.DOY
//
// where ROOT is a local directory or an s3://bucket/prefix URL.
package sdsarchive

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/pkg/storage/cache"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

// Path returns the path of the day file of id that covers ts, relative
// to the archive root.
func Path(id wave.StreamID, ts nano.Ts) string {
	return path.Join(dir(id, ts), fileName(id, ts))
}

func dir(id wave.StreamID, ts nano.Ts) string {
	year := strconv.Itoa(ts.Time().Year())
	return strings.Join([]string{year, id.Network, id.Station, id.Channel + ".D"}, "/")
}

func fileName(id wave.StreamID, ts nano.Ts) string {
	t := ts.Time()
	return fmt.Sprintf("%s.%s.%s.%s.D.%d.%03d", id.Network, id.Station, id.Location, id.Channel, t.Year(), t.YearDay())
}

// Immutable returns a cache.Cacheable that accepts day files of days
// that ended before now.  The file of the current day may still grow.
func Immutable(now func() time.Time) cache.Cacheable {
	return func(u *storage.URI) bool {
		i := strings.LastIndex(u.Path, ".D.")
		if i < 0 {
			return false
		}
		year, doy, ok := strings.Cut(u.Path[i+3:], ".")
		if !ok {
			return false
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return false
		}
		d, err := strconv.Atoi(doy)
		if err != nil || d < 1 || d > 366 {
			return false
		}
		start := time.Date(y, time.January, d, 0, 0, 0, 0, time.UTC)
		return !start.Add(day).After(now())
	}
}

type Source struct {
	recordstream.Request
	engine storage.Engine
	logger *zap.Logger
	now    func() time.Time
	root   *storage.URI
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	started bool
	files   []string
	current storage.Reader
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
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetClock sets the clock used for requests without an end time.
func (s *Source) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Source) SetSource(address string) error {
	if address == "" {
		return rserr.ErrInvalid("sds archive: empty root path")
	}
	root, err := storage.ParseURI(address)
	if err != nil {
		return rserr.E(rserr.Invalid, err)
	}
	s.root = root
	return nil
}

func (s *Source) AddStream(id wave.StreamID) error {
	return s.AddStreamWindow(id, nano.Window{})
}

// AddStreamWindow adds a stream.  Archive directories are built from the
// network, station and channel codes so only the location code may
// contain wildcards.  Day files of such streams are found by listing the
// channel directories.
func (s *Source) AddStreamWindow(id wave.StreamID, w nano.Window) error {
	loc := id
	loc.Location = ""
	if loc.HasWildcard() || id.Channel == "" {
		return rserr.ErrInvalid("sds archive: stream %s must name one channel", id)
	}
	return s.Request.AddStreamWindow(id, w)
}

// plan lists the day files covering the requested streams in order.  The
// day before each window start is included since its file may hold
// records that run past midnight.
func (s *Source) plan() ([]string, error) {
	if s.root == nil {
		return nil, rserr.ErrInvalid("sds archive: no root set")
	}
	seen := make(map[string]bool)
	listings := make(map[string][]storage.Info)
	var files []string
	for _, stream := range s.Streams {
		w := s.StreamWindow(stream)
		if !w.HasStart() {
			return nil, rserr.ErrInvalid("sds archive: stream %s needs a start time", stream.ID)
		}
		end := w.End
		if !w.HasEnd() {
			end = nano.TimeToTs(s.now())
		}
		for ts := w.Start.Trunc(day).Add(-day); ts < end; ts = ts.Add(day) {
			paths, err := s.dayFiles(stream.ID, ts, listings)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				if !seen[p] {
					seen[p] = true
					files = append(files, p)
				}
			}
		}
	}
	return files, nil
}

// dayFiles returns the paths of the day files of id for the day of ts.
// A location wildcard is matched against the listing of the channel
// directory.
func (s *Source) dayFiles(id wave.StreamID, ts nano.Ts, listings map[string][]storage.Info) ([]string, error) {
	if !strings.ContainsAny(id.Location, "*?") {
		return []string{Path(id, ts)}, nil
	}
	d := dir(id, ts)
	infos, ok := listings[d]
	if !ok {
		var err error
		infos, err = s.engine.List(s.ctx, s.root.JoinPath(d))
		if err != nil && !rserr.IsNotFound(err) {
			return nil, err
		}
		listings[d] = infos
	}
	pattern := fileName(id, ts)
	var paths []string
	for _, info := range infos {
		if ok, _ := path.Match(pattern, info.Name); ok {
			paths = append(paths, path.Join(d, info.Name))
		}
	}
	return paths, nil
}

// next opens the next day file that exists.
func (s *Source) next() (*mseed.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.closed && len(s.files) > 0 {
		uri := s.root.JoinPath(s.files[0])
		s.files = s.files[1:]
		r, err := s.engine.Get(s.ctx, uri)
		if rserr.IsNotFound(err) {
			s.logger.Debug("No day file", zap.Stringer("uri", uri))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.current = r
		s.records = mseed.NewReader(r, s.logger)
		return s.records, nil
	}
	return nil, nil
}

func (s *Source) Read() (*wave.Record, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	if !s.started {
		files, err := s.plan()
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.started = true
		s.files = files
	}
	records := s.records
	s.mu.Unlock()
	for {
		if records == nil {
			var err error
			if records, err = s.next(); records == nil || err != nil {
				return nil, err
			}
		}
		rec, err := records.Read()
		if s.isClosed() {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if rec == nil {
			if err := s.closeCurrent(); err != nil {
				return nil, err
			}
			records = nil
			continue
		}
		if s.Match(rec) {
			return rec, nil
		}
	}
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Source) closeCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

func (s *Source) Close() error {
	// Cancel first so that a Get holding the lock returns.
	s.cancel()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.files = nil
	s.mu.Unlock()
	return s.closeCurrent()
}
