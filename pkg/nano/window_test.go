package nano_test

import (
	"testing"

	"github.com/brimdata/wave/pkg/nano"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowValid(t *testing.T) {
	assert.True(t, nano.Window{}.Valid())
	assert.True(t, nano.NewWindow(10, 0).Valid())
	assert.True(t, nano.NewWindow(10, 10).Valid())
	assert.False(t, nano.NewWindow(20, 10).Valid())
	assert.True(t, nano.NewWindow(10, 10).Empty())
}

func TestWindowContains(t *testing.T) {
	w := nano.NewWindow(10, 20)
	assert.True(t, w.Contains(10))
	assert.True(t, w.Contains(19))
	assert.False(t, w.Contains(20))
	assert.False(t, w.Contains(9))
	open := nano.NewWindow(0, 20)
	assert.True(t, open.Contains(nano.MinTs+1))
	assert.True(t, w.Overlaps(5, 10))
	assert.False(t, w.Overlaps(20, 30))
}

func TestWindowIntersectUnion(t *testing.T) {
	a := nano.NewWindow(10, 30)
	b := nano.NewWindow(20, 40)
	assert.Equal(t, nano.NewWindow(20, 30), a.Intersect(b))
	assert.Equal(t, nano.NewWindow(10, 40), a.Union(b))
	openEnd := nano.NewWindow(5, 0)
	assert.Equal(t, nano.NewWindow(10, 30), a.Intersect(openEnd))
	assert.Equal(t, nano.NewWindow(5, 0), a.Union(openEnd))
	assert.Equal(t, nano.Window{}, a.Union(nano.Window{}))
}

func TestParseWindow(t *testing.T) {
	w, err := nano.ParseWindow("2024-01-01 00:00:00~2024-01-02 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 24*3600*int64(1e9), int64(w.End-w.Start))
	w, err = nano.ParseWindow("2024-01-01~")
	require.NoError(t, err)
	assert.False(t, w.HasEnd())
	_, err = nano.ParseWindow("2024-01-02~2024-01-01")
	assert.Error(t, err)
	_, err = nano.ParseWindow("2024-01-02")
	assert.Error(t, err)
	_, err = nano.ParseWindow("garbage~")
	assert.Error(t, err)
}

func TestWindowText(t *testing.T) {
	w := nano.NewWindow(nano.Unix(1609459200, 0), 0)
	b, err := w.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2021-01-01T00:00:00Z~", string(b))
	var out nano.Window
	require.NoError(t, out.UnmarshalText(b))
	assert.Equal(t, w, out)
	assert.Error(t, out.UnmarshalText([]byte("2021-01-01")))
}
