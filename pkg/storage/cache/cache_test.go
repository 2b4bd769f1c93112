package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/brimdata/wave/pkg/storage"
	"github.com/brimdata/wave/pkg/storage/mock"
	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dayFile = storage.MustParseURI("s3://archive/2021/GE/APE/BHZ.D/GE.APE..BHZ.D.2021.001")

func readAll(t *testing.T, e storage.Engine, u *storage.URI) string {
	r, err := e.Get(context.Background(), u)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

func TestKind(t *testing.T) {
	var k Kind
	require.NoError(t, k.Set(""))
	assert.Equal(t, KindNone, k)
	require.NoError(t, k.Set("redis"))
	assert.Equal(t, "redis", k.String())
	assert.Error(t, k.Set("memcached"))
}

func TestNoneReturnsEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	engine := mock.NewMockEngine(ctrl)
	e, err := New(Config{Kind: KindNone}, engine, nil, nil)
	require.NoError(t, err)
	assert.Same(t, engine, e)
}

func TestLocalCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	engine := mock.NewMockEngine(ctrl)
	engine.EXPECT().Get(gomock.Any(), dayFile).Return(storage.NewBytesReader([]byte("day")), nil).Times(1)

	reg := prometheus.NewRegistry()
	e, err := New(Config{Kind: KindLocal, LocalSize: 4}, engine, nil, reg)
	require.NoError(t, err)
	assert.Equal(t, "day", readAll(t, e, dayFile))
	assert.Equal(t, "day", readAll(t, e, dayFile))
	c := e.(*Engine).cache.(*LocalCache)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hits.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.misses.WithLabelValues("local")))
}

func TestLocalCacheSkipsUncacheable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	engine := mock.NewMockEngine(ctrl)
	engine.EXPECT().Get(gomock.Any(), dayFile).DoAndReturn(func(context.Context, *storage.URI) (storage.Reader, error) {
		return storage.NewBytesReader([]byte("day")), nil
	}).Times(2)
	never := func(*storage.URI) bool { return false }
	e, err := New(Config{Kind: KindLocal}, engine, never, nil)
	require.NoError(t, err)
	readAll(t, e, dayFile)
	readAll(t, e, dayFile)
}

func TestLocalCacheErrorNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	engine := mock.NewMockEngine(ctrl)
	fail := errors.New("connection reset")
	gomock.InOrder(
		engine.EXPECT().Get(gomock.Any(), dayFile).Return(nil, fail),
		engine.EXPECT().Get(gomock.Any(), dayFile).Return(storage.NewBytesReader([]byte("day")), nil),
	)
	e, err := New(Config{Kind: KindLocal}, engine, nil, nil)
	require.NoError(t, err)
	_, err = e.Get(context.Background(), dayFile)
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, "day", readAll(t, e, dayFile))
}

type fakeRedis struct {
	values map[string]string
	expiry time.Duration
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.expiry = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	engine := mock.NewMockEngine(ctrl)
	engine.EXPECT().Get(gomock.Any(), dayFile).Return(storage.NewBytesReader([]byte("day")), nil).Times(1)

	client := &fakeRedis{values: map[string]string{}}
	c := NewRedisCache(engine, client, time.Hour, nil)
	e := &Engine{Engine: engine, cache: c, cacheable: func(*storage.URI) bool { return true }}
	assert.Equal(t, "day", readAll(t, e, dayFile))
	assert.Equal(t, "day", client.values[dayFile.String()])
	assert.Equal(t, time.Hour, client.expiry)
	assert.Equal(t, "day", readAll(t, e, dayFile))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hits.WithLabelValues("redis")))
}
