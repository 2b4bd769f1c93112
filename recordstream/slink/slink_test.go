package slink_test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed/mseedtest"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/recordstream/slink"
	"github.com/brimdata/wave/rserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ape = wave.NewStreamID("GE", "APE", "", "BHZ")
	t0  = nano.Unix(1609459200, 0)
)

type server struct {
	ln       net.Listener
	mu       sync.Mutex
	commands []string
	reply    func(cmd string) string
	stream   func(conn net.Conn)
	done     chan struct{}
}

func newServer(t *testing.T, reply func(string) string, stream func(net.Conn)) *server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &server{ln: ln, reply: reply, stream: stream, done: make(chan struct{})}
	go s.serve()
	t.Cleanup(func() {
		ln.Close()
		<-s.done
	})
	return s
}

func (s *server) serve() {
	defer close(s.done)
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()
		switch {
		case cmd == "END":
			s.stream(conn)
			return
		case cmd == "HELLO":
			fmt.Fprint(conn, "SeedLink v3.1 (2020.075) :: SLPROTO:3.1\r\nwave test server\r\n")
		default:
			reply := "OK"
			if s.reply != nil {
				reply = s.reply(cmd)
			}
			fmt.Fprint(conn, reply+"\r\n")
			if reply != "OK" {
				return
			}
		}
	}
}

func (s *server) Commands() []string {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}

func (s *server) Addr() string {
	return s.ln.Addr().String()
}

func packet(seq int, data []byte) []byte {
	return append([]byte(fmt.Sprintf("SL%06X", seq)), data...)
}

func TestTimeWindow(t *testing.T) {
	recs := mseedtest.Sequence(ape, t0, 3)
	srv := newServer(t, nil, func(conn net.Conn) {
		info := append([]byte("SLINFO  "), make([]byte, slink.RecordLen)...)
		conn.Write(info)
		for i, rec := range recs {
			conn.Write(packet(i+1, rec.Data))
		}
		conn.Write([]byte("END"))
	})
	s := slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	require.NoError(t, s.AddStream(ape))
	require.NoError(t, s.SetTimeWindow(nano.NewWindow(t0, t0.Add(time.Minute))))
	for _, expected := range recs {
		rec, err := s.Read()
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, expected.Data, rec.Data)
	}
	rec, err := s.Read()
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, "000003", s.Sequence())
	require.NoError(t, s.Close())
	assert.Equal(t, []string{
		"HELLO",
		"STATION APE GE",
		"SELECT BHZ",
		"TIME 2021,01,01,00,00,00 2021,01,01,00,01,00",
		"END",
	}, srv.Commands())
}

func TestEndWithOpenConnection(t *testing.T) {
	recs := mseedtest.Sequence(ape, t0, 2)
	release := make(chan struct{})
	srv := newServer(t, nil, func(conn net.Conn) {
		for i, rec := range recs {
			conn.Write(packet(i+1, rec.Data))
		}
		conn.Write([]byte("END"))
		<-release
	})
	defer close(release)
	s := slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	require.NoError(t, s.AddStream(ape))
	require.NoError(t, s.SetTimeWindow(nano.NewWindow(t0, t0.Add(time.Minute))))
	done := make(chan []*wave.Record)
	go func() {
		var out []*wave.Record
		for {
			rec, err := s.Read()
			assert.NoError(t, err)
			if rec == nil {
				done <- out
				return
			}
			out = append(out, rec)
		}
	}()
	select {
	case out := <-done:
		assert.Len(t, out, 2)
	case <-time.After(5 * time.Second):
		s.Close()
		t.Fatal("Read did not return end of stream after END")
	}
	rec, err := s.Read()
	assert.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, s.Close())
}

func TestServerErrorAfterHandshake(t *testing.T) {
	srv := newServer(t, nil, func(conn net.Conn) {
		conn.Write([]byte("ERROR\r\n"))
	})
	s := slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	require.NoError(t, s.AddStream(ape))
	_, err := s.Read()
	assert.ErrorIs(t, err, slink.ErrServer)
	require.NoError(t, s.Close())
}

func TestServerError(t *testing.T) {
	srv := newServer(t, func(cmd string) string {
		if strings.HasPrefix(cmd, "STATION") {
			return "ERROR"
		}
		return "OK"
	}, func(net.Conn) {})
	s := slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	require.NoError(t, s.AddStream(wave.NewStreamID("XX", "NONE", "", "")))
	_, err := s.Read()
	assert.ErrorIs(t, err, slink.ErrServer)
	assert.Equal(t, []string{"HELLO", "STATION NONE XX"}, srv.Commands())
}

func TestCloseUnblocksRead(t *testing.T) {
	rec := mseedtest.Record(mseedtest.Spec{ID: ape, Start: t0})
	release := make(chan struct{})
	srv := newServer(t, nil, func(conn net.Conn) {
		conn.Write(packet(1, rec.Data))
		<-release
	})
	defer close(release)
	s := slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	require.NoError(t, s.AddStream(wave.NewStreamID("GE", "APE", "*", "BH?")))
	out, err := s.Read()
	require.NoError(t, err)
	require.NotNil(t, out)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rec, err := s.Read()
		assert.NoError(t, err)
		assert.Nil(t, rec)
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not unblock Read")
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, nil, func(net.Conn) { <-release })
	defer close(release)
	s := slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	require.NoError(t, s.AddStream(ape))
	require.NoError(t, s.SetTimeout(50*time.Millisecond))
	_, err := s.Read()
	require.Error(t, err)
	assert.True(t, rserr.IsKind(err, rserr.Timeout), err.Error())
	require.NoError(t, s.Close())
}

func TestConfiguration(t *testing.T) {
	s := slink.New(nil)
	assert.True(t, rserr.IsInvalid(s.SetSource("")))
	require.NoError(t, s.SetSource("geofon.example.org"))

	srv := newServer(t, nil, func(net.Conn) {})
	s = slink.New(nil)
	require.NoError(t, s.SetSource(srv.Addr()))
	_, err := s.Read()
	assert.True(t, rserr.IsInvalid(err))
}
