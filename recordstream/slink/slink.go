// Package slink implements a SeedLink v3 client Source.
//
// The address is host[:port] with port 18000 by default.  After the
// handshake the server sends packets made of an 8-byte header, "SL"
// followed by a six digit hexadecimal sequence number, and a 512-byte
// MiniSEED record.
package slink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

const (
	DefaultPort = "18000"
	HeaderLen   = 8
	RecordLen   = 512
)

var ErrServer = errors.New("seedlink server error")

type Source struct {
	recordstream.Request
	logger  *zap.Logger
	decoder *mseed.Decoder
	dialer  net.Dialer
	address string
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	ended  bool
	conn   net.Conn
	reader *bufio.Reader
	seq    string
}

var _ recordstream.Source = (*Source)(nil)

func New(logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		logger:  logger,
		decoder: mseed.NewDecoder(logger),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Source) SetSource(address string) error {
	if address == "" {
		return rserr.ErrInvalid("slink source: empty address")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, DefaultPort)
		if _, _, err := net.SplitHostPort(address); err != nil {
			return rserr.ErrInvalid("slink source: %s", err)
		}
	}
	s.address = address
	return nil
}

// Sequence returns the sequence number of the last packet received.
func (s *Source) Sequence() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Source) connect() (*bufio.Reader, error) {
	s.mu.Lock()
	if s.closed || s.ended {
		s.mu.Unlock()
		return nil, nil
	}
	if s.reader != nil {
		r := s.reader
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()
	if s.address == "" {
		return nil, rserr.ErrInvalid("slink source: no address set")
	}
	if s.Timeout > 0 {
		s.dialer.Timeout = s.Timeout
	}
	conn, err := s.dialer.DialContext(s.ctx, "tcp", s.address)
	if err != nil {
		return nil, s.ioError(err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil, nil
	}
	s.conn = conn
	s.mu.Unlock()
	r := bufio.NewReader(conn)
	if err := s.handshake(conn, r); err != nil {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
		return nil, s.ioError(err)
	}
	s.logger.Info("Connected", zap.String("address", s.address), zap.Int("streams", len(s.Streams)))
	s.mu.Lock()
	s.reader = r
	s.mu.Unlock()
	return r, nil
}

func (s *Source) handshake(conn net.Conn, r *bufio.Reader) error {
	if err := s.send(conn, "HELLO"); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		line, err := s.readLine(r)
		if err != nil {
			return err
		}
		if i == 0 {
			s.logger.Debug("Server", zap.String("hello", line))
		}
	}
	if len(s.Streams) == 0 {
		return rserr.ErrInvalid("slink source: no streams requested")
	}
	for _, stream := range s.Streams {
		if err := s.command(conn, r, fmt.Sprintf("STATION %s %s", stream.ID.Station, stream.ID.Network)); err != nil {
			return err
		}
		if sel := selector(stream.ID); sel != "" {
			if err := s.command(conn, r, "SELECT "+sel); err != nil {
				return err
			}
		}
		if err := s.command(conn, r, timeCommand(s.StreamWindow(stream))); err != nil {
			return err
		}
	}
	return s.send(conn, "END")
}

// selector returns the SELECT pattern LLCCC for id or "" for all
// channels.
func selector(id wave.StreamID) string {
	if id.Channel == "" || id.Channel == "*" {
		return ""
	}
	loc := id.Location
	if loc == "*" {
		loc = "??"
	}
	cha := strings.ReplaceAll(id.Channel, "*", "???")
	if len(cha) > 3 {
		cha = cha[:3]
	}
	return loc + cha
}

func timeCommand(w nano.Window) string {
	if !w.HasStart() {
		return "DATA"
	}
	cmd := "TIME " + formatTime(w.Start)
	if w.HasEnd() {
		cmd += " " + formatTime(w.End)
	}
	return cmd
}

func formatTime(ts nano.Ts) string {
	return ts.Time().UTC().Format("2006,01,02,15,04,05")
}

func (s *Source) send(conn net.Conn, cmd string) error {
	s.deadline(conn)
	_, err := io.WriteString(conn, cmd+"\r\n")
	return err
}

func (s *Source) command(conn net.Conn, r *bufio.Reader, cmd string) error {
	if err := s.send(conn, cmd); err != nil {
		return err
	}
	line, err := s.readLine(r)
	if err != nil {
		return err
	}
	if line != "OK" {
		return fmt.Errorf("%w: %s: %s", ErrServer, cmd, line)
	}
	return nil
}

func (s *Source) readLine(r *bufio.Reader) (string, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		s.deadline(conn)
	}
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Source) deadline(conn net.Conn) {
	if s.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(s.Timeout))
	}
}

// Read returns the next data record.  It returns end of stream when the
// server ends a time window request with END or after Close.
func (s *Source) Read() (*wave.Record, error) {
	r, err := s.connect()
	if r == nil || err != nil {
		return nil, err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	packet := make([]byte, HeaderLen+RecordLen)
	for {
		s.deadline(conn)
		// END and ERROR arrive in place of a packet header and the
		// server may keep the connection open afterwards.
		if _, err := io.ReadFull(r, packet[:3]); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, s.ioError(err)
		}
		switch string(packet[:3]) {
		case "END":
			s.end()
			return nil, nil
		case "ERR":
			line, _ := r.ReadString('\n')
			return nil, fmt.Errorf("%w: ERR%s", ErrServer, strings.TrimSpace(line))
		}
		if _, err := io.ReadFull(r, packet[3:HeaderLen]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, s.ioError(err)
		}
		if _, err := io.ReadFull(r, packet[HeaderLen:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, s.ioError(err)
		}
		if string(packet[:6]) == "SLINFO" {
			continue
		}
		if string(packet[:2]) != "SL" {
			return nil, fmt.Errorf("%w: bad packet header %q", ErrServer, packet[:HeaderLen])
		}
		data := append([]byte(nil), packet[HeaderLen:]...)
		meta, err := s.decoder.Decode(data)
		if err != nil {
			s.logger.Warn("Skipping undecodable record", zap.String("sequence", string(packet[2:HeaderLen])), zap.Error(err))
			continue
		}
		s.mu.Lock()
		s.seq = string(packet[2:HeaderLen])
		s.mu.Unlock()
		if rec := meta.Record(data); s.Match(rec) {
			return rec, nil
		}
	}
}

// end drops the connection after the server finished the request.
func (s *Source) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// ioError maps errors caused by Close to end of stream and deadline
// errors to the Timeout kind.
func (s *Source) ioError(err error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return rserr.E(rserr.Timeout, fmt.Errorf("slink %s: %w", s.address, err))
	}
	return err
}

func (s *Source) Close() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
