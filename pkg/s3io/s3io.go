// Package s3io reads and writes objects of an S3 bucket addressed by
// s3://bucket/key URLs.
package s3io

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

var ErrInvalidS3Path = errors.New("path is not a valid s3 location")

// NewClient returns an S3 client configured from cfg and the usual AWS
// environment variables and shared config files.
func NewClient(cfg *aws.Config) *s3.S3 {
	c := aws.NewConfig()
	c.MergeIn(cfg)
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		Config:            *c,
		SharedConfigState: session.SharedConfigEnable,
	}))
	return s3.New(sess)
}

func IsS3Path(path string) bool {
	_, _, err := parsePath(path)
	return err == nil
}

func parsePath(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", ErrInvalidS3Path
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// IsNotFound returns true if err is an S3 request failure with status 404.
func IsNotFound(err error) bool {
	var reqerr awserr.RequestFailure
	return errors.As(err, &reqerr) && reqerr.StatusCode() == http.StatusNotFound
}

// uploader is the part of s3manager.Uploader a Writer uses.
type uploader interface {
	UploadWithContext(aws.Context, *s3manager.UploadInput, ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Writer uploads everything written to it as one object.  The upload runs
// in its own goroutine and its error is returned by Write or Close.
type Writer struct {
	ctx      context.Context
	writer   *io.PipeWriter
	uploader uploader
	bucket   string
	key      string
	once     sync.Once
	done     chan struct{}
	err      error
}

func NewWriter(ctx context.Context, path string, client s3iface.S3API) (*Writer, error) {
	bucket, key, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return &Writer{
		ctx:      ctx,
		bucket:   bucket,
		key:      key,
		uploader: s3manager.NewUploaderWithClient(client),
		done:     make(chan struct{}),
	}, nil
}

func (w *Writer) start() {
	pr, pw := io.Pipe()
	w.writer = pw
	go func() {
		_, err := w.uploader.UploadWithContext(w.ctx, &s3manager.UploadInput{
			Bucket: aws.String(w.bucket),
			Key:    aws.String(w.key),
			Body:   pr,
		})
		w.err = err
		close(w.done)
		pr.CloseWithError(err)
	}()
}

func (w *Writer) Write(b []byte) (int, error) {
	w.once.Do(w.start)
	return w.writer.Write(b)
}

// Close finishes the upload.  An empty object is uploaded if nothing was
// written.
func (w *Writer) Close() error {
	w.once.Do(w.start)
	err := w.writer.Close()
	<-w.done
	if err != nil {
		return err
	}
	return w.err
}
