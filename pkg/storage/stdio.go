package storage

import (
	"context"
	"io"
	"os"
)

// Stdio reads from stdin and writes to stdout.  The URI path is ignored.
type Stdio struct {
	stdin  io.Reader
	stdout io.Writer
}

var _ Engine = (*Stdio)(nil)

func NewStdio() *Stdio {
	return &Stdio{stdin: os.Stdin, stdout: os.Stdout}
}

func (s *Stdio) Get(context.Context, *URI) (Reader, error) {
	return &notSupportedReaderAt{io.NopCloser(s.stdin)}, nil
}

func (s *Stdio) Put(context.Context, *URI) (io.WriteCloser, error) {
	return &nopWriteCloser{s.stdout}, nil
}

func (*Stdio) Exists(context.Context, *URI) (bool, error) {
	return true, nil
}

func (*Stdio) Size(context.Context, *URI) (int64, error) {
	return 0, ErrNotSupported
}

func (*Stdio) List(context.Context, *URI) ([]Info, error) {
	return nil, ErrNotSupported
}

type nopWriteCloser struct{ io.Writer }

func (*nopWriteCloser) Close() error { return nil }
