// Package combined implements a Source that serves the older part of each
// requested time window from an archive and the recent part from a
// realtime server.
//
// The address names the realtime source, then the archive source:
//
//	slink/host:18000;fdsnws/(http://host/fdsnws/dataselect/1)??rtMax=2h
//
// Data older than the realtime availability horizon, one hour unless
// overridden with the rtMax or slinkMax parameter, is requested from the
// archive.  All archive records are delivered before any realtime record.
package combined

import (
	"fmt"
	"sync"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultRealtimeType         = "slink"
	DefaultArchiveType          = "fdsnws"
	DefaultRealtimeAvailability = time.Hour
)

type State int

const (
	Idle State = iota
	ServingArchive
	ServingRealtime
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ServingArchive:
		return "archive"
	case ServingRealtime:
		return "realtime"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Route is the outcome of splitting a requested window at the archive end
// time.
type Route struct {
	Archive    nano.Window
	Realtime   nano.Window
	ToArchive  bool
	ToRealtime bool
}

// Split divides w at archiveEnd.  A window without a start or starting at
// or after archiveEnd goes to the realtime source unchanged, one ending at
// or before archiveEnd goes to the archive unchanged, and any other window
// is cut into [start, archiveEnd) and [archiveEnd, end).
func Split(w nano.Window, archiveEnd nano.Ts) Route {
	switch {
	case !w.HasStart() || w.Start >= archiveEnd:
		return Route{Realtime: w, ToRealtime: true}
	case w.HasEnd() && w.End <= archiveEnd:
		return Route{Archive: w, ToArchive: true}
	}
	return Route{
		Archive:    nano.NewWindow(w.Start, archiveEnd),
		Realtime:   nano.NewWindow(archiveEnd, w.End),
		ToArchive:  true,
		ToRealtime: true,
	}
}

// pending is a stream request whose window has an unset side.
type pending struct {
	id     wave.StreamID
	window nano.Window
}

type backend struct {
	recordstream.Source
	typ     string
	address string
	streams int
}

// Source is the combined record stream.  Its setters are meant to be
// called from one goroutine before the first Read.  Close may be called
// from any goroutine.
type Source struct {
	registry   *recordstream.Registry
	logger     *zap.Logger
	metrics    *recordstream.Metrics
	now        func() time.Time
	horizon    time.Duration
	archiveEnd nano.Ts
	window     nano.Window
	deferred   []pending
	realtime   *backend
	archive    *backend

	mu      sync.Mutex
	state   State
	closed  bool
	current *backend
}

var _ recordstream.Source = (*Source)(nil)

func New(registry *recordstream.Registry, logger *zap.Logger, metrics *recordstream.Metrics) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
		horizon:  DefaultRealtimeAvailability,
	}
}

// SetClock replaces the clock the archive end time is computed from.
func (s *Source) SetClock(now func() time.Time) {
	s.now = now
}

// SetRealtimeAvailability sets how far back the realtime source holds
// data.  It has no effect once the archive end time has been computed.
func (s *Source) SetRealtimeAvailability(d time.Duration) {
	s.horizon = d
}

// ArchiveEndTime returns the time before which data is requested from the
// archive.  It is computed from the clock on first use after SetSource and
// then fixed.
func (s *Source) ArchiveEndTime() nano.Ts {
	if s.archiveEnd == 0 {
		s.archiveEnd = nano.TimeToTs(s.now().Add(-s.horizon))
	}
	return s.archiveEnd
}

func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Realtime returns the realtime backend or nil before SetSource.
func (s *Source) Realtime() recordstream.Source {
	if s.realtime == nil {
		return nil
	}
	return s.realtime.Source
}

// Archive returns the archive backend or nil before SetSource.
func (s *Source) Archive() recordstream.Source {
	if s.archive == nil {
		return nil
	}
	return s.archive.Source
}

func (s *Source) SetSource(address string) error {
	if err := s.idle(); err != nil {
		return err
	}
	base, params, err := recordstream.SplitParams(address)
	if err != nil {
		return err
	}
	for key := range params {
		if key != "rtMax" && key != "slinkMax" {
			return rserr.ErrInvalid("combined source: unknown parameter %q", key)
		}
	}
	// rtMax takes precedence over slinkMax.
	for _, key := range []string{"slinkMax", "rtMax"} {
		val, ok := params[key]
		if !ok {
			continue
		}
		d, err := recordstream.ParseDuration(val)
		if err != nil {
			return rserr.ErrInvalid("combined source parameter %s=%q: expected seconds or a duration such as 2h", key, val)
		}
		s.horizon = d
	}
	segs, err := recordstream.SplitSources(base)
	if err != nil {
		return err
	}
	if len(segs) != 2 {
		return rserr.ErrInvalid("combined source %q: expected realtime;archive", address)
	}
	realtime, err := s.newBackend(segs[0], DefaultRealtimeType)
	if err != nil {
		return err
	}
	archive, err := s.newBackend(segs[1], DefaultArchiveType)
	if err != nil {
		realtime.Close()
		return err
	}
	if err := s.closeBackends(); err != nil {
		s.logger.Warn("Closing replaced backends", zap.Error(err))
	}
	s.realtime, s.archive = realtime, archive
	s.archiveEnd = 0
	s.deferred = nil
	return nil
}

func (s *Source) newBackend(seg, defaultType string) (*backend, error) {
	typ, address := recordstream.ParseSegment(seg, defaultType)
	src, err := s.registry.New(typ, address)
	if err != nil {
		return nil, err
	}
	return &backend{Source: src, typ: typ, address: address}, nil
}

func (s *Source) closeBackends() error {
	var err error
	for _, b := range []*backend{s.realtime, s.archive} {
		if b != nil {
			err = multierr.Append(err, b.Close())
		}
	}
	return err
}

func (s *Source) idle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rserr.ErrClosed
	}
	if s.state != Idle {
		return rserr.ErrInvalid("combined source: cannot configure during acquisition")
	}
	return nil
}

func (s *Source) configured() error {
	if err := s.idle(); err != nil {
		return err
	}
	if s.realtime == nil {
		return rserr.ErrInvalid("combined source: no backends configured")
	}
	return nil
}

// AddStream requests id for the overall time window.  The request is
// routed when the acquisition starts, so the window may be set later.
func (s *Source) AddStream(id wave.StreamID) error {
	if err := s.configured(); err != nil {
		return err
	}
	s.deferred = append(s.deferred, pending{id: id})
	return nil
}

// AddStreamWindow routes the request for id at once if w has both sides
// set.  Otherwise the request is deferred like AddStream and the unset
// sides fall back to the overall time window when the acquisition starts.
func (s *Source) AddStreamWindow(id wave.StreamID, w nano.Window) error {
	if err := s.configured(); err != nil {
		return err
	}
	if !w.Valid() {
		return rserr.ErrInvalid("stream %s: time window %s ends before it starts", id, w)
	}
	if w.HasStart() && w.HasEnd() {
		return s.route(id, w)
	}
	if r := s.resolve(w, s.window); !r.Valid() {
		return rserr.ErrInvalid("stream %s: time window %s ends before it starts", id, r)
	}
	s.deferred = append(s.deferred, pending{id: id, window: w})
	return nil
}

// resolve fills the unset sides of w from overall.
func (s *Source) resolve(w, overall nano.Window) nano.Window {
	if !w.HasStart() {
		w.Start = overall.Start
	}
	if !w.HasEnd() {
		w.End = overall.End
	}
	return w
}

func (s *Source) route(id wave.StreamID, w nano.Window) error {
	r := Split(w, s.ArchiveEndTime())
	if r.ToArchive {
		if err := s.archive.AddStreamWindow(id, r.Archive); err != nil {
			return err
		}
		s.archive.streams++
		s.logger.Debug("Stream routed to archive", zap.Stringer("stream", id), zap.Stringer("window", r.Archive))
	}
	if r.ToRealtime {
		if err := s.realtime.AddStreamWindow(id, r.Realtime); err != nil {
			return err
		}
		s.realtime.streams++
		s.logger.Debug("Stream routed to realtime", zap.Stringer("stream", id), zap.Stringer("window", r.Realtime))
	}
	return nil
}

func (s *Source) SetStartTime(ts nano.Ts) error {
	w := s.window
	w.Start = ts
	return s.SetTimeWindow(w)
}

func (s *Source) SetEndTime(ts nano.Ts) error {
	w := s.window
	w.End = ts
	return s.SetTimeWindow(w)
}

// SetTimeWindow sets the overall time window of streams added without one.
func (s *Source) SetTimeWindow(w nano.Window) error {
	if err := s.idle(); err != nil {
		return err
	}
	if !w.Valid() {
		return rserr.ErrInvalid("time window %s ends before it starts", w)
	}
	for _, p := range s.deferred {
		if r := s.resolve(p.window, w); !r.Valid() {
			return rserr.ErrInvalid("stream %s: time window %s ends before it starts", p.id, r)
		}
	}
	s.window = w
	return nil
}

// broadcast applies set to the realtime source, then the archive, and
// stops at the first failure.
func (s *Source) broadcast(set func(recordstream.Source) error) error {
	if err := s.configured(); err != nil {
		return err
	}
	for _, b := range []*backend{s.realtime, s.archive} {
		if err := set(b.Source); err != nil {
			return fmt.Errorf("combined backend %s/%s: %w", b.typ, b.address, err)
		}
	}
	return nil
}

func (s *Source) SetTimeout(d time.Duration) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetTimeout(d) })
}

func (s *Source) SetRecordType(typ string) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetRecordType(typ) })
}

// begin routes the deferred streams and picks the first phase.  It is
// called with s.mu held.
func (s *Source) begin() error {
	if s.realtime == nil {
		return nil
	}
	for len(s.deferred) > 0 {
		p := s.deferred[0]
		if err := s.route(p.id, s.resolve(p.window, s.window)); err != nil {
			return err
		}
		s.deferred = s.deferred[1:]
	}
	switch {
	case s.archive.streams > 0:
		s.enter(ServingArchive, s.archive)
	case s.realtime.streams > 0:
		s.enter(ServingRealtime, s.realtime)
	}
	return nil
}

func (s *Source) enter(state State, b *backend) {
	s.state = state
	s.current = b
	s.metrics.Phase(state.String())
	s.logger.Debug("Entering phase", zap.Stringer("phase", state), zap.String("type", b.typ))
}

// Read returns the next archive record until the archive is exhausted,
// then the next realtime record.
func (s *Source) Read() (*wave.Record, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	if s.state == Idle {
		if err := s.begin(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if s.state == Idle {
			s.mu.Unlock()
			return nil, nil
		}
	}
	b := s.current
	s.mu.Unlock()
	for {
		rec, err := b.Read()
		if rec != nil {
			s.metrics.Record(b.typ, rec)
			return rec, nil
		}
		next, err := s.advance(b, err)
		if next == nil {
			return nil, err
		}
		b = next
	}
}

// advance ends the phase served by b and returns the backend of the next
// phase or nil and any error to report at the end of the acquisition.
// An archive failure is logged and acquisition continues with the
// realtime source.
func (s *Source) advance(b *backend, err error) (*backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.state = Idle
		return nil, nil
	}
	if s.state == ServingArchive {
		if err != nil {
			s.logger.Warn("Archive failed", zap.String("type", b.typ), zap.Error(err))
			s.metrics.BackendFailure(b.typ)
		}
		if cerr := b.Close(); cerr != nil {
			s.logger.Warn("Closing archive", zap.Error(cerr))
		}
		if s.realtime.streams > 0 {
			s.enter(ServingRealtime, s.realtime)
			return s.realtime, nil
		}
		err = nil
	}
	s.state = Idle
	s.current = nil
	if err != nil {
		s.metrics.BackendFailure(b.typ)
	}
	return nil, err
}

// Close closes both backends, which ends a pending Read.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.closeBackends()
}
