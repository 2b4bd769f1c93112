package serve

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- serve(ctx, &http.Server{Handler: handler}, ln, time.Second, zap.NewNop())
	}()
	res, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(b))

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestWritePortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "port")
	require.NoError(t, writePortFile(path, "127.0.0.1:18080"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "18080", string(b))
	assert.Error(t, writePortFile(path, "no-port"))
}
