package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brimdata/wave/rserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	u, err := ParseURI("s3://archive/sds")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(S3Scheme))
	assert.Equal(t, "s3://archive/sds/2021/GE", u.JoinPath("2021", "GE").String())

	u, err = ParseURI("data/sds")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(FileScheme))
	abs, err := filepath.Abs("data/sds")
	require.NoError(t, err)
	assert.Equal(t, abs, u.Filepath())

	u, err = ParseURI("-")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(StdioScheme))

	u, err = ParseURI("")
	require.NoError(t, err)
	assert.True(t, u.IsZero())

	var text URI
	require.NoError(t, text.UnmarshalText([]byte("https://service.example.org/fdsnws")))
	b, err := text.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "https://service.example.org/fdsnws", string(b))
}

func TestFileSystem(t *testing.T) {
	ctx := context.Background()
	engine := NewLocalEngine()
	dir := MustParseURI(t.TempDir())
	u := dir.JoinPath("2021", "GE", "APE", "BHZ.D", "GE.APE..BHZ.D.2021.001")

	ok, err := engine.Exists(ctx, u)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = engine.Get(ctx, u)
	assert.True(t, rserr.IsNotFound(err))

	require.NoError(t, Put(ctx, engine, u, strings.NewReader("waveform")))
	ok, err = engine.Exists(ctx, u)
	require.NoError(t, err)
	assert.True(t, ok)
	size, err := engine.Size(ctx, u)
	require.NoError(t, err)
	assert.EqualValues(t, 8, size)

	r, err := engine.Get(ctx, u)
	require.NoError(t, err)
	size, err = Size(r)
	require.NoError(t, err)
	assert.EqualValues(t, 8, size)
	require.NoError(t, r.Close())

	b, err := Get(ctx, engine, u)
	require.NoError(t, err)
	assert.Equal(t, "waveform", string(b))

	require.NoError(t, os.Mkdir(filepath.Join(dir.Filepath(), "2021", "GE", "APE", "BHZ.D", "sub"), 0755))
	infos, err := engine.List(ctx, dir.JoinPath("2021", "GE", "APE", "BHZ.D"))
	require.NoError(t, err)
	assert.Equal(t, []Info{{Name: "GE.APE..BHZ.D.2021.001", Size: 8}}, infos)
}

func TestFileSystemPutIsAtomic(t *testing.T) {
	ctx := context.Background()
	engine := NewFileSystem()
	u := MustParseURI(filepath.Join(t.TempDir(), "out.mseed"))
	require.NoError(t, Put(ctx, engine, u, strings.NewReader("first")))
	w, err := engine.Put(ctx, u)
	require.NoError(t, err)
	_, err = w.Write([]byte("second"))
	require.NoError(t, err)
	b, err := Get(ctx, engine, u)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))
	require.NoError(t, w.Close())
	b, err = Get(ctx, engine, u)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
}

func TestHTTPEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data":
			w.Write([]byte("records"))
		case "/nodata":
			w.WriteHeader(http.StatusNoContent)
		case "/bad":
			http.Error(w, "starttime is malformed", http.StatusBadRequest)
		case "/fail":
			http.Error(w, "database offline", http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()
	engine := NewRemoteEngine()

	b, err := Get(ctx, engine, MustParseURI(srv.URL+"/data"))
	require.NoError(t, err)
	assert.Equal(t, "records", string(b))

	_, err = engine.Get(ctx, MustParseURI(srv.URL+"/nodata"))
	assert.True(t, rserr.IsNotFound(err))
	_, err = engine.Get(ctx, MustParseURI(srv.URL+"/missing"))
	assert.True(t, rserr.IsNotFound(err))
	_, err = engine.Get(ctx, MustParseURI(srv.URL+"/bad"))
	assert.True(t, rserr.IsInvalid(err))
	assert.Contains(t, err.Error(), "starttime is malformed")
	_, err = engine.Get(ctx, MustParseURI(srv.URL+"/fail"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = engine.Put(ctx, MustParseURI(srv.URL+"/data"))
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestRouterUnknownScheme(t *testing.T) {
	engine := NewRemoteEngine()
	_, err := engine.Get(context.Background(), MustParseURI("/data/x"))
	assert.True(t, rserr.IsInvalid(err))
}

func TestStdio(t *testing.T) {
	var out bytes.Buffer
	s := &Stdio{stdin: strings.NewReader("in"), stdout: &out}
	router := NewRouter()
	router.Set(StdioScheme, s)
	u := MustParseURI("-")
	r, err := router.Get(context.Background(), u)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "in", string(b))
	require.NoError(t, Put(context.Background(), router, u, strings.NewReader("out")))
	assert.Equal(t, "out", out.String())
}

func TestBytesReader(t *testing.T) {
	r := NewBytesReader([]byte{0, 1})
	size, err := Size(r)
	require.NoError(t, err)
	assert.EqualValues(t, 2, size)
	b := make([]byte, 3)
	n, err := r.ReadAt(b, 1)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1, b[0])
}
