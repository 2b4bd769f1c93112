package recordstream_test

import (
	"testing"
	"time"

	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSources(t *testing.T) {
	cases := []struct {
		in       string
		expected []string
	}{
		{"slink/a:18000", []string{"slink/a:18000"}},
		{"slink/a;slink/b", []string{"slink/a", "slink/b"}},
		{"type1/source1;type2/(source,with;semicolons);type3/source3",
			[]string{"type1/source1", "type2/(source,with;semicolons)", "type3/source3"}},
		{" a ; b ", []string{"a", "b"}},
		{"balanced/(slink/a;slink/b);fdsnws/c", []string{"balanced/(slink/a;slink/b)", "fdsnws/c"}},
	}
	for _, c := range cases {
		segs, err := recordstream.SplitSources(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.expected, segs, c.in)
	}
	for _, in := range []string{"", "a;", ";a", "a;;b", "(a;b", "a);(b", "a)"} {
		_, err := recordstream.SplitSources(in)
		assert.True(t, rserr.IsInvalid(err), "%q: %v", in, err)
	}
}

func TestParseSegment(t *testing.T) {
	cases := []struct {
		seg, typ, address string
	}{
		{"slink/geofon.example.org:18000", "slink", "geofon.example.org:18000"},
		{"geofon.example.org:18000", "def", "geofon.example.org:18000"},
		{"type2/(source,with;semicolons)", "type2", "source,with;semicolons"},
		{"http://host/fdsnws", "def", "http://host/fdsnws"},
		{"fdsnws/http://host/fdsnws", "fdsnws", "http://host/fdsnws"},
		{"(data/day.mseed)", "def", "data/day.mseed"},
		{"/data/day.mseed", "def", "/data/day.mseed"},
		{"file/(a)/(b)", "file", "(a)/(b)"},
		{"sds_archive-2/x", "sds_archive-2", "x"},
		{"Slink/x", "def", "Slink/x"},
	}
	for _, c := range cases {
		typ, address := recordstream.ParseSegment(c.seg, "def")
		assert.Equal(t, c.typ, typ, c.seg)
		assert.Equal(t, c.address, address, c.seg)
	}
}

func TestSplitParams(t *testing.T) {
	base, params, err := recordstream.SplitParams("slink/a;fdsnws/b??slinkMax=3600&rtMax=1h")
	require.NoError(t, err)
	assert.Equal(t, "slink/a;fdsnws/b", base)
	assert.Equal(t, map[string]string{"slinkMax": "3600", "rtMax": "1h"}, params)

	base, params, err = recordstream.SplitParams("file/(x??y)??follow=true")
	require.NoError(t, err)
	assert.Equal(t, "file/(x??y)", base)
	assert.Equal(t, map[string]string{"follow": "true"}, params)

	base, params, err = recordstream.SplitParams("a?b")
	require.NoError(t, err)
	assert.Equal(t, "a?b", base)
	assert.Empty(t, params)

	base, params, err = recordstream.SplitParams("a??")
	require.NoError(t, err)
	assert.Equal(t, "a", base)
	assert.Empty(t, params)

	_, _, err = recordstream.SplitParams("a??x")
	assert.True(t, rserr.IsInvalid(err))
	_, _, err = recordstream.SplitParams("a??=1")
	assert.True(t, rserr.IsInvalid(err))
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"3600":  time.Hour,
		"1.5":   1500 * time.Millisecond,
		"30s":   30 * time.Second,
		"10m":   10 * time.Minute,
		"2h":    2 * time.Hour,
		"1d":    24 * time.Hour,
		"1w":    7 * 24 * time.Hour,
		" 0 ":   0,
		"0.5h":  30 * time.Minute,
		"86400": 24 * time.Hour,
	}
	for in, expected := range cases {
		d, err := recordstream.ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, d, in)
	}
	for _, in := range []string{"", "h", "-1", "soon", "1y", "NaN", "Inf", "1e12w", "9223372037"} {
		_, err := recordstream.ParseDuration(in)
		assert.True(t, rserr.IsInvalid(err), in)
	}
}
