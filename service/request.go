package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

type Request struct {
	*http.Request
	Logger *zap.Logger
}

func newRequest(w http.ResponseWriter, r *http.Request, c *Core) (*ResponseWriter, *Request) {
	req := &Request{Request: r}
	req.Logger = c.logger.With(zap.String("request_id", req.ID()))
	res := &ResponseWriter{
		ResponseWriter: w,
		Logger:         req.Logger,
		core:           c,
		request:        req,
		submitted:      time.Now().UTC(),
	}
	return res, req
}

func (r *Request) ID() string {
	return RequestIDFromContext(r.Context())
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return "0"
}

type ResponseWriter struct {
	http.ResponseWriter
	Logger    *zap.Logger
	core      *Core
	request   *Request
	submitted time.Time
	written   int32
	status    int
}

func (w *ResponseWriter) WriteHeader(status int) {
	if atomic.CompareAndSwapInt32(&w.written, 0, 1) {
		w.status = status
		w.core.metrics.queries.WithLabelValues(strconv.Itoa(status)).Inc()
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Started reports whether the status line has been sent.
func (w *ResponseWriter) Started() bool {
	return atomic.LoadInt32(&w.written) != 0
}

func (w *ResponseWriter) Error(err error) {
	if errors.Is(err, context.Canceled) && w.request.Context().Err() != nil {
		w.Logger.Info("Request context canceled")
		return
	}
	status := errorStatus(err)
	if status >= 500 {
		w.Logger.Warn("Error", zap.Int("status", status), zap.Error(err))
	}
	if w.Started() {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w.ResponseWriter, "Error %d: %s\n\n%s\n\n", status, http.StatusText(status), errorMessage(err))
	fmt.Fprintf(w.ResponseWriter, "Usage details are available from %s/\n\n", DataselectPath)
	fmt.Fprintf(w.ResponseWriter, "Request:\n%s\n\n", w.request.URL)
	fmt.Fprintf(w.ResponseWriter, "Request Submitted:\n%s\n\n", w.submitted.Format(time.RFC3339))
	fmt.Fprintf(w.ResponseWriter, "Service version:\n%s\n", w.core.conf.Version)
}

func errorStatus(err error) int {
	switch {
	case rserr.IsInvalid(err):
		return http.StatusBadRequest
	case rserr.IsNotFound(err):
		return http.StatusNotFound
	case rserr.IsKind(err, rserr.Timeout):
		return http.StatusGatewayTimeout
	case rserr.IsClosed(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	var e *rserr.Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}
