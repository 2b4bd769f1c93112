package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/brimdata/wave/rserr"
)

// Router dispatches each call to the engine registered for the URI's
// scheme.  Schemes that were not enabled fail with an Invalid error.
type Router struct {
	engines map[Scheme]Engine
}

var _ Engine = (*Router)(nil)

func NewRouter() *Router {
	return &Router{engines: make(map[Scheme]Engine)}
}

// Enable installs the default engine for scheme.
func (r *Router) Enable(scheme Scheme) {
	switch scheme {
	case FileScheme:
		r.engines[scheme] = NewFileSystem()
	case StdioScheme:
		r.engines[scheme] = NewStdio()
	case HTTPScheme, HTTPSScheme:
		r.engines[scheme] = NewHTTP(http.DefaultClient)
	case S3Scheme:
		r.engines[scheme] = NewS3()
	default:
		panic(fmt.Sprintf("storage: no default engine for scheme %q", scheme))
	}
}

// Set installs e as the engine for scheme.
func (r *Router) Set(scheme Scheme, e Engine) {
	r.engines[scheme] = e
}

func (r *Router) lookup(u *URI) (Engine, error) {
	scheme := Scheme(u.Scheme)
	if e, ok := r.engines[scheme]; ok {
		return e, nil
	}
	return nil, rserr.ErrInvalid("storage scheme %q not supported for %q", scheme, u)
}

func (r *Router) Get(ctx context.Context, u *URI) (Reader, error) {
	e, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, u)
}

func (r *Router) Put(ctx context.Context, u *URI) (io.WriteCloser, error) {
	e, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return e.Put(ctx, u)
}

func (r *Router) Exists(ctx context.Context, u *URI) (bool, error) {
	e, err := r.lookup(u)
	if err != nil {
		return false, err
	}
	return e.Exists(ctx, u)
}

func (r *Router) Size(ctx context.Context, u *URI) (int64, error) {
	e, err := r.lookup(u)
	if err != nil {
		return 0, err
	}
	return e.Size(ctx, u)
}

func (r *Router) List(ctx context.Context, u *URI) ([]Info, error) {
	e, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return e.List(ctx, u)
}
