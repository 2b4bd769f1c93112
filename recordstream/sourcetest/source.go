// Package sourcetest provides an in-memory recordstream.Source for tests
// of code that drives sources.
package sourcetest

import (
	"sync"
	"sync/atomic"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/recordstream"
)

// Source delivers Records in order and then ends, fails with Err or, if
// Block is set, waits for Close.  Configure it before the first Read.
type Source struct {
	recordstream.Request
	Address string
	Records []*wave.Record
	Err     error
	Block   bool

	mu      sync.Mutex
	next    int
	reads   int
	closes  int32
	closed  chan struct{}
	started chan struct{}
	once    sync.Once
}

func New(recs ...*wave.Record) *Source {
	return &Source{
		Records: recs,
		closed:  make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (s *Source) SetSource(address string) error {
	s.Address = address
	return nil
}

func (s *Source) Read() (*wave.Record, error) {
	s.mu.Lock()
	if s.reads == 0 {
		close(s.started)
	}
	s.reads++
	if s.IsClosed() {
		s.mu.Unlock()
		return nil, nil
	}
	if s.next < len(s.Records) {
		rec := s.Records[s.next]
		s.next++
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Block {
		<-s.closed
	}
	return nil, nil
}

func (s *Source) Close() error {
	atomic.AddInt32(&s.closes, 1)
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *Source) IsClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Closes returns the number of calls to Close.
func (s *Source) Closes() int {
	return int(atomic.LoadInt32(&s.closes))
}

// Delivered returns the number of records Read has returned.
func (s *Source) Delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Started is closed by the first Read.
func (s *Source) Started() <-chan struct{} {
	return s.started
}

// A Factory registers a constructor of Sources and keeps every Source it
// created.
type Factory struct {
	mu      sync.Mutex
	sources []*Source
	// Setup, if set, configures each new Source once its address is
	// known, that is at the first Read.
	Setup func(*Source)
}

func (f *Factory) New() recordstream.Source {
	s := New()
	f.mu.Lock()
	f.sources = append(f.sources, s)
	f.mu.Unlock()
	return &setupSource{Source: s, setup: f.Setup}
}

// Sources returns the created sources in creation order.
func (f *Factory) Sources() []*Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Source(nil), f.sources...)
}

// Lookup returns the last created source with the given address.
func (f *Factory) Lookup(address string) *Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sources) - 1; i >= 0; i-- {
		if f.sources[i].Address == address {
			return f.sources[i]
		}
	}
	return nil
}

type setupSource struct {
	*Source
	setup func(*Source)
	once  sync.Once
}

func (s *setupSource) Read() (*wave.Record, error) {
	s.once.Do(func() {
		if s.setup != nil {
			s.setup(s.Source)
		}
	})
	return s.Source.Read()
}
