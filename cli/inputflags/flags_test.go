package inputflags

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed/mseedtest"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/rserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initFlags(t *testing.T, args ...string) (*Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &f, f.Init()
}

func TestRecsize(t *testing.T) {
	f, err := initFlags(t)
	require.NoError(t, err)
	assert.Equal(t, 512, f.RecordLength)
	f, err = initFlags(t, "-recsize", "4KiB")
	require.NoError(t, err)
	assert.Equal(t, 4096, f.RecordLength)
	for _, s := range []string{"64B", "2GiB", "lots"} {
		_, err := initFlags(t, "-recsize", s)
		assert.True(t, rserr.IsInvalid(err), s)
	}
}

func TestOpen(t *testing.T) {
	recs := mseedtest.Sequence(wave.NewStreamID("GE", "APE", "", "BHZ"), nano.Unix(1609459200, 0), 2)
	path := filepath.Join(t.TempDir(), "in.mseed")
	require.NoError(t, os.WriteFile(path, mseedtest.Concat(recs), 0644))
	f, err := initFlags(t)
	require.NoError(t, err)
	r, closer, err := f.Open(context.Background(), storage.NewLocalEngine(), path, nil)
	require.NoError(t, err)
	defer closer.Close()
	for _, expected := range recs {
		rec, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, expected.Start, rec.Start)
	}
	rec, err := r.Read()
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, _, err = f.Open(context.Background(), storage.NewLocalEngine(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.True(t, rserr.IsNotFound(err))
}
