package recordstream_test

import (
	"errors"
	"testing"

	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/recordstream/mock"
	"github.com/brimdata/wave/recordstream/sourcetest"
	"github.com/brimdata/wave/rserr"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	f := &sourcetest.Factory{}
	reg := recordstream.NewRegistry()
	reg.Register("slink", f.New)
	reg.Register("fdsnws", f.New)
	reg.Register("file", f.New)
	assert.Equal(t, []string{"fdsnws", "file", "slink"}, reg.Types())

	s, err := reg.Open("slink://geofon.example.org:18000")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "geofon.example.org:18000", f.Lookup("geofon.example.org:18000").Address)

	_, err = reg.Create("slnik")
	require.Error(t, err)
	assert.True(t, rserr.IsInvalid(err))
	assert.Contains(t, err.Error(), `unknown record stream type "slnik" (did you mean "slink"?)`)

	_, err = reg.Create("arclink")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")

	for _, url := range []string{"slink", "://x", ""} {
		_, err := reg.Open(url)
		assert.True(t, rserr.IsInvalid(err), url)
	}
}

func TestRegistrySetSourceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mock.NewMockSource(ctrl)
	reg := recordstream.NewRegistry()
	reg.Register("mock", func() recordstream.Source { return m })

	m.EXPECT().SetSource("bad").Return(errors.New("no such host"))
	m.EXPECT().Close().Return(nil)
	_, err := reg.New("mock", "bad")
	require.Error(t, err)
	assert.True(t, rserr.IsInvalid(err))
	assert.Contains(t, err.Error(), `mock source "bad": no such host`)

	invalid := rserr.ErrInvalid("port out of range")
	m.EXPECT().SetSource("host:99999").Return(invalid)
	m.EXPECT().Close().Return(nil)
	_, err = reg.New("mock", "host:99999")
	assert.Same(t, invalid, err)
}
