package dump

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/cli/outputflags"
	"github.com/brimdata/wave/mseed/mseedtest"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type sliceReader struct {
	recs []*wave.Record
	err  error
}

func (s *sliceReader) Read() (*wave.Record, error) {
	if len(s.recs) == 0 {
		return nil, s.err
	}
	rec := s.recs[0]
	s.recs = s.recs[1:]
	return rec, nil
}

var recs = mseedtest.Sequence(wave.NewStreamID("GE", "APE", "", "BHZ"), nano.Unix(1609459200, 0), 4)

func TestCopyRecords(t *testing.T) {
	var buf bytes.Buffer
	st := newStats()
	w := outputflags.NewWriter(nopCloser{&buf}, outputflags.FormatMiniSEED)
	require.NoError(t, copyRecords(w, &sliceReader{recs: recs}, st, 0))
	assert.Equal(t, mseedtest.Concat(recs), buf.Bytes())
	assert.EqualValues(t, 4, st.Records())

	buf.Reset()
	st = newStats()
	require.NoError(t, copyRecords(w, &sliceReader{recs: recs}, st, 2))
	assert.Equal(t, mseedtest.Concat(recs[:2]), buf.Bytes())

	failure := errors.New("connection reset")
	err := copyRecords(w, &sliceReader{recs: recs[:1], err: failure}, newStats(), 0)
	assert.Equal(t, failure, err)
}

func TestStatsDisplay(t *testing.T) {
	st := newStats()
	var buf bytes.Buffer
	assert.True(t, st.Display(&buf))
	assert.Contains(t, buf.String(), "latest:  -")
	for _, rec := range recs {
		st.add(rec)
	}
	buf.Reset()
	st.Display(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "records: 4 "))
	assert.True(t, strings.HasPrefix(lines[1], "bytes:   2KiB ("), lines[1])
	assert.Equal(t, "latest:  "+recs[3].Start.String(), lines[2])
}
