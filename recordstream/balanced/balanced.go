// Package balanced implements a Source that spreads the requested stations
// over several backend sources and interleaves their records.
//
// The address lists the backends, separated by semicolons:
//
//	slink/server1:18000;slink/server2:18000;fdsnws/(http://host/path;x)
//
// Each station is assigned to one backend by the sum of the bytes of its
// code modulo the number of backends.  The assignment is stable for a
// given backend list and changes when backends are added or removed.
package balanced

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"github.com/segmentio/ksuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultType is the backend type of address segments without a type.
const DefaultType = "slink"

type State int

const (
	// Idle means no acquisition is running.
	Idle State = iota
	// Running means every producer is delivering records.
	Running
	// Draining means some producers have finished and the rest are still
	// delivering.
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type backend struct {
	recordstream.Source
	typ     string
	address string
	active  bool
}

// Source is the balanced record stream.  Its setters are meant to be
// called from one goroutine before the first Read.  Close may be called
// from any goroutine.
type Source struct {
	registry *recordstream.Registry
	logger   *zap.Logger
	metrics  *recordstream.Metrics
	capacity int
	backends []*backend
	live     int

	mu     sync.Mutex
	state  State
	closed bool
	queue  *recordstream.Queue
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
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
		capacity: recordstream.DefaultQueueCapacity,
	}
}

// SetQueueCapacity sets the number of records the backends may deliver
// ahead of Read.
func (s *Source) SetQueueCapacity(n int) {
	s.capacity = n
}

// SetSource creates a backend for every segment of address.  Backends of
// an earlier address are closed.
func (s *Source) SetSource(address string) error {
	if err := s.idle(); err != nil {
		return err
	}
	segs, err := recordstream.SplitSources(address)
	if err != nil {
		return err
	}
	var backends []*backend
	for _, seg := range segs {
		typ, addr := recordstream.ParseSegment(seg, DefaultType)
		src, err := s.registry.New(typ, addr)
		if err != nil {
			closeBackends(backends)
			return err
		}
		backends = append(backends, &backend{Source: src, typ: typ, address: addr})
	}
	if err := closeBackends(s.backends); err != nil {
		s.logger.Warn("Closing replaced backends", zap.Error(err))
	}
	s.backends = backends
	return nil
}

func closeBackends(backends []*backend) error {
	var err error
	for _, b := range backends {
		err = multierr.Append(err, b.Close())
	}
	return err
}

// Len returns the number of backends.
func (s *Source) Len() int {
	return len(s.backends)
}

// Backend returns the i'th backend in address order.
func (s *Source) Backend(i int) recordstream.Source {
	return s.backends[i].Source
}

// Index returns the index of the backend serving station or -1 if there
// are no backends.
func (s *Source) Index(station string) int {
	if len(s.backends) == 0 {
		return -1
	}
	return Hash(station) % len(s.backends)
}

// Hash returns the sum of the bytes of station.
func Hash(station string) int {
	var sum int
	for i := 0; i < len(station); i++ {
		sum += int(station[i])
	}
	return sum
}

func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// idle returns an error unless the source can be configured.
func (s *Source) idle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rserr.ErrClosed
	}
	if s.state != Idle {
		return rserr.ErrInvalid("balanced source: cannot configure during acquisition")
	}
	return nil
}

func (s *Source) route(id wave.StreamID) (*backend, error) {
	if err := s.idle(); err != nil {
		return nil, err
	}
	if len(s.backends) == 0 {
		return nil, rserr.ErrInvalid("balanced source: no backends configured")
	}
	return s.backends[s.Index(id.Station)], nil
}

func (s *Source) AddStream(id wave.StreamID) error {
	b, err := s.route(id)
	if err != nil {
		return err
	}
	if err := b.AddStream(id); err != nil {
		return err
	}
	b.active = true
	return nil
}

func (s *Source) AddStreamWindow(id wave.StreamID, w nano.Window) error {
	b, err := s.route(id)
	if err != nil {
		return err
	}
	if err := b.AddStreamWindow(id, w); err != nil {
		return err
	}
	b.active = true
	return nil
}

// broadcast applies set to every backend and stops at the first failure.
func (s *Source) broadcast(set func(recordstream.Source) error) error {
	if err := s.idle(); err != nil {
		return err
	}
	for i, b := range s.backends {
		if err := set(b.Source); err != nil {
			return fmt.Errorf("balanced backend %d (%s/%s): %w", i, b.typ, b.address, err)
		}
	}
	return nil
}

func (s *Source) SetStartTime(ts nano.Ts) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetStartTime(ts) })
}

func (s *Source) SetEndTime(ts nano.Ts) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetEndTime(ts) })
}

func (s *Source) SetTimeWindow(w nano.Window) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetTimeWindow(w) })
}

func (s *Source) SetTimeout(d time.Duration) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetTimeout(d) })
}

func (s *Source) SetRecordType(typ string) error {
	return s.broadcast(func(b recordstream.Source) error { return b.SetRecordType(typ) })
}

// Read returns the next record of any backend.  The first Read starts one
// producer goroutine per backend with streams.  Read returns the end of the
// acquisition once every producer has finished and the source is idle
// again.
func (s *Source) Read() (*wave.Record, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	if s.state == Idle {
		s.start()
		if s.live == 0 {
			s.mu.Unlock()
			return nil, nil
		}
	}
	ctx, queue := s.ctx, s.queue
	s.mu.Unlock()
	for {
		rec, err := queue.Pop(ctx)
		if err != nil {
			// Canceled by Close.
			s.join()
			return nil, nil
		}
		s.metrics.QueueDepth(queue.Len())
		if rec != nil {
			return rec, nil
		}
		s.live--
		if s.live == 0 {
			s.join()
			return nil, nil
		}
		s.mu.Lock()
		s.state = Draining
		s.mu.Unlock()
	}
}

// start launches the producers.  It is called with s.mu held.
func (s *Source) start() {
	var active []*backend
	for _, b := range s.backends {
		if b.active {
			active = append(active, b)
		}
	}
	s.live = len(active)
	if s.live == 0 {
		return
	}
	if s.queue == nil || (s.capacity > 0 && s.queue.Cap() != s.capacity) {
		s.queue = recordstream.NewQueue(s.capacity)
	}
	queue := s.queue
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel
	s.group = new(errgroup.Group)
	s.state = Running
	logger := s.logger.With(zap.Stringer("session", ksuid.New()))
	logger.Debug("Starting acquisition", zap.Int("producers", s.live))
	for i, b := range s.backends {
		if !b.active {
			continue
		}
		b := b
		blog := logger.With(zap.Int("backend", i), zap.String("type", b.typ), zap.String("address", b.address))
		s.group.Go(func() error {
			s.produce(ctx, queue, b, blog)
			return nil
		})
	}
}

// produce moves the records of b into the queue and pushes the sentinel
// when b ends, fails or the acquisition is canceled.
func (s *Source) produce(ctx context.Context, queue *recordstream.Queue, b *backend, logger *zap.Logger) {
	defer func() {
		if err := queue.Done(ctx); err != nil {
			logger.Debug("Sentinel dropped", zap.Error(err))
		}
	}()
	for {
		rec, err := read(b)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("Backend failed", zap.Error(err))
				s.metrics.BackendFailure(b.typ)
			}
			return
		}
		if rec == nil {
			logger.Debug("Backend finished")
			return
		}
		s.metrics.Record(b.typ, rec)
		if err := queue.Push(ctx, rec); err != nil {
			return
		}
	}
}

// read turns a panic in the backend into an error.
func read(b *backend) (rec *wave.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("panic: %+v\n%s\n", r, string(debug.Stack()))
		}
	}()
	return b.Read()
}

// join waits for the producers and returns the source to Idle.
func (s *Source) join() {
	s.mu.Lock()
	cancel, group := s.cancel, s.group
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	group.Wait()
	s.mu.Lock()
	s.queue.Reset()
	s.ctx = nil
	s.cancel = nil
	s.group = nil
	s.live = 0
	s.state = Idle
	s.mu.Unlock()
}

// Close closes every backend, which ends their producers, and waits for
// the producers to exit.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, group := s.cancel, s.group
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	err := closeBackends(s.backends)
	if group != nil {
		group.Wait()
	}
	return err
}
