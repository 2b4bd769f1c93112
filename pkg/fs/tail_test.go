package fs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "tail.mseed"))
	require.NoError(t, err)
	defer f.Close()
	tf, err := TailFile(f.Name())
	require.NoError(t, err)
	defer tf.Close()
	buf := make([]byte, 100)

	for i := 0; i < 10; i++ {
		str := fmt.Sprintf("record #%d\n", i)
		_, err := f.WriteString(str)
		require.NoError(t, err)
		n, err := tf.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, str, string(buf[:n]))
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		tf.Stop()
	}()
	n, err := tf.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTailFileReadToEOF(t *testing.T) {
	var expected bytes.Buffer
	f, err := os.Create(filepath.Join(t.TempDir(), "tail.mseed"))
	require.NoError(t, err)
	defer f.Close()
	tf, err := TailFile(f.Name())
	require.NoError(t, err)
	defer tf.Close()

	for i := 0; i < 10; i++ {
		str := fmt.Sprintf("record #%d\n", i)
		expected.WriteString(str)
		_, err := f.WriteString(str)
		require.NoError(t, err)
	}
	require.NoError(t, tf.Stop())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, tf)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), buf.String())
}

func TestTailFileRemoved(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tail.mseed")
	require.NoError(t, os.WriteFile(name, []byte("abc"), 0644))
	tf, err := TailFile(name)
	require.NoError(t, err)
	defer tf.Close()
	b, err := io.ReadAll(io.LimitReader(tf, 3))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	// Other files in the directory do not matter.
	require.NoError(t, os.WriteFile(name+".idx", []byte("x"), 0644))
	go func() {
		time.Sleep(10 * time.Millisecond)
		os.Remove(name)
	}()
	assertEOF(t, tf)
}

func TestTailFileRenamed(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tail.mseed")
	require.NoError(t, os.WriteFile(name, nil, 0644))
	tf, err := TailFile(name)
	require.NoError(t, err)
	defer tf.Close()
	go func() {
		time.Sleep(10 * time.Millisecond)
		os.Rename(name, name+".old")
	}()
	assertEOF(t, tf)
}

func assertEOF(t *testing.T, tf *TFile) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := tf.Read(make([]byte, 10))
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(5 * time.Second):
		tf.Stop()
		t.Fatal("Read did not end")
	}
}

func TestTailFileIsDir(t *testing.T) {
	_, err := TailFile(t.TempDir())
	assert.ErrorIs(t, err, ErrIsDir)
}
