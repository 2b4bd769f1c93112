package storage

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/brimdata/wave/pkg/s3io"
	"github.com/brimdata/wave/rserr"
)

type S3Engine struct {
	once   sync.Once
	client s3iface.S3API
}

var _ Engine = (*S3Engine)(nil)
var _ Sizer = (*s3io.Reader)(nil)

// NewS3 returns an engine whose client is created on first use from the
// AWS environment.
func NewS3() *S3Engine {
	return &S3Engine{}
}

func (s *S3Engine) api() s3iface.S3API {
	s.once.Do(func() {
		if s.client == nil {
			s.client = s3io.NewClient(nil)
		}
	})
	return s.client
}

func (s *S3Engine) Get(ctx context.Context, u *URI) (Reader, error) {
	r, err := s3io.NewReader(ctx, u.String(), s.api())
	if err != nil {
		return nil, wrapErr(u, err)
	}
	return r, nil
}

func (s *S3Engine) Put(ctx context.Context, u *URI) (io.WriteCloser, error) {
	w, err := s3io.NewWriter(ctx, u.String(), s.api())
	if err != nil {
		return nil, wrapErr(u, err)
	}
	return w, nil
}

func (s *S3Engine) Size(ctx context.Context, u *URI) (int64, error) {
	info, err := s3io.Stat(ctx, u.String(), s.api())
	return info.Size, wrapErr(u, err)
}

func (s *S3Engine) Exists(ctx context.Context, u *URI) (bool, error) {
	ok, err := s3io.Exists(ctx, u.String(), s.api())
	return ok, wrapErr(u, err)
}

func (s *S3Engine) List(ctx context.Context, u *URI) ([]Info, error) {
	entries, err := s3io.List(ctx, u.String(), s.api())
	if err != nil {
		return nil, wrapErr(u, err)
	}
	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, Info{
			Name: e.Name,
			Size: e.Size,
		})
	}
	return infos, nil
}

func wrapErr(u *URI, err error) error {
	if s3io.IsNotFound(err) {
		return rserr.ErrNotFound("%s", u)
	}
	return err
}
