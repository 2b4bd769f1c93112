// Package fdsnws implements a Source that fetches records from an FDSN
// dataselect web service, one query per requested stream.
//
// The address is the service URL.  A bare host is queried over http and a
// URL without a path gets the standard /fdsnws/dataselect/1/query path.
package fdsnws

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

const QueryPath = "/fdsnws/dataselect/1/query"

// TimeFormat is the time format of starttime and endtime parameters.
const TimeFormat = "2006-01-02T15:04:05.000000"

type Source struct {
	recordstream.Request
	engine storage.Engine
	logger *zap.Logger
	base   *url.URL

	mu      sync.Mutex
	closed  bool
	started bool
	pending []recordstream.StreamRequest
	ctx     context.Context
	cancel  context.CancelFunc
	timer   *time.Timer
	expired int32
	body    storage.Reader
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

// ServiceURL normalizes a dataselect service address.
func ServiceURL(address string) (*url.URL, error) {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, rserr.ErrInvalid("fdsnws source: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, rserr.ErrInvalid("fdsnws source: no host in %q", address)
	}
	switch {
	case u.Path == "" || u.Path == "/":
		u.Path = QueryPath
	case !strings.HasSuffix(u.Path, "/query"):
		u.Path = strings.TrimSuffix(u.Path, "/") + "/query"
	}
	u.RawQuery = ""
	return u, nil
}

func (s *Source) SetSource(address string) error {
	if address == "" {
		return rserr.ErrInvalid("fdsnws source: empty address")
	}
	u, err := ServiceURL(address)
	if err != nil {
		if rserr.IsInvalid(err) {
			return err
		}
		return rserr.E(rserr.Invalid, err)
	}
	s.base = u
	return nil
}

// Query returns the dataselect URL for one stream and window.
func Query(base *url.URL, id wave.StreamID, w nano.Window) *url.URL {
	loc := id.Location
	if loc == "" {
		loc = "--"
	}
	cha := id.Channel
	if cha == "" {
		cha = "*"
	}
	params := url.Values{}
	params.Set("net", id.Network)
	params.Set("sta", id.Station)
	params.Set("loc", loc)
	params.Set("cha", cha)
	if w.HasStart() {
		params.Set("starttime", w.Start.Time().UTC().Format(TimeFormat))
	}
	if w.HasEnd() {
		params.Set("endtime", w.End.Time().UTC().Format(TimeFormat))
	}
	u := *base
	u.RawQuery = params.Encode()
	return &u
}

// next issues the query of the next pending stream that has data.
func (s *Source) next() (*mseed.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.closed && len(s.pending) > 0 {
		stream := s.pending[0]
		s.pending = s.pending[1:]
		u := Query(s.base, stream.ID, s.StreamWindow(stream))
		s.armTimer()
		r, err := s.engine.Get(s.ctx, (*storage.URI)(u))
		s.stopTimer()
		if rserr.IsNotFound(err) {
			s.logger.Debug("No data", zap.Stringer("stream", stream.ID))
			continue
		}
		if err != nil {
			return nil, s.timeoutError(err)
		}
		s.body = r
		s.records = mseed.NewReader(r, s.logger)
		return s.records, nil
	}
	return nil, nil
}

// armTimer restarts the idle timer.  The request context is canceled when
// a request or body read waits longer than the configured timeout.  The
// timer only runs while Read waits on the server.
func (s *Source) armTimer() {
	if s.Timeout <= 0 {
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.Timeout, func() {
			atomic.StoreInt32(&s.expired, 1)
			s.cancel()
		})
		return
	}
	s.timer.Reset(s.Timeout)
}

func (s *Source) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Source) timeoutError(err error) error {
	if atomic.LoadInt32(&s.expired) != 0 {
		return rserr.E(rserr.Timeout, err)
	}
	return err
}

func (s *Source) Read() (*wave.Record, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	if !s.started {
		if s.base == nil {
			s.mu.Unlock()
			return nil, rserr.ErrInvalid("fdsnws source: no address set")
		}
		s.started = true
		s.pending = append(s.pending, s.Streams...)
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
		s.mu.Lock()
		s.armTimer()
		s.mu.Unlock()
		rec, err := records.Read()
		s.mu.Lock()
		s.stopTimer()
		if s.closed {
			s.mu.Unlock()
			return nil, nil
		}
		if err != nil {
			err = s.timeoutError(err)
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Unlock()
		if rec == nil {
			if err := s.closeBody(); err != nil {
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

func (s *Source) closeBody() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

func (s *Source) Close() error {
	s.cancel()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	s.stopTimer()
	s.mu.Unlock()
	return s.closeBody()
}
