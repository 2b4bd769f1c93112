package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/brimdata/wave/rserr"
	"go.uber.org/zap"
)

const MiniSEEDContentType = "application/vnd.fdsn.mseed"

func handleQuery(c *Core, w *ResponseWriter, r *Request) {
	q, err := ParseQuery(r.Request)
	if err != nil {
		w.Error(err)
		return
	}
	src, err := c.registry.Open(c.conf.Source)
	if err != nil {
		w.Error(err)
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			r.Logger.Warn("Error closing source", zap.Error(err))
		}
	}()
	if err := q.Apply(src); err != nil {
		w.Error(err)
		return
	}
	if err := src.SetTimeout(c.conf.Timeout); err != nil {
		w.Error(err)
		return
	}
	// Closing the source unblocks a pending Read when the client leaves.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			src.Close()
		case <-done:
		}
	}()
	rec, err := src.Read()
	if err != nil {
		w.Error(err)
		return
	}
	if rec == nil {
		if q.NoData == http.StatusNotFound {
			w.Error(rserr.ErrNotFound("no data matches the request"))
			return
		}
		w.WriteHeader(q.NoData)
		return
	}
	w.Header().Set("Content-Type", MiniSEEDContentType)
	var records, bytes int
	for rec != nil {
		if _, err := w.Write(rec.Data); err != nil {
			r.Logger.Info("Client went away", zap.Error(err))
			return
		}
		w.Flush()
		records++
		bytes += len(rec.Data)
		c.metrics.records.Inc()
		c.metrics.bytes.Add(float64(len(rec.Data)))
		rec, err = src.Read()
	}
	if err != nil {
		// The status line is gone so the client sees a short response.
		r.Logger.Warn("Query aborted", zap.Error(err), zap.Int("records", records))
		return
	}
	r.Logger.Debug("Query completed", zap.Int("records", records), zap.Int("bytes", bytes))
}

type VersionResponse struct {
	Version string `json:"version"`
}

func handleVersion(c *Core, w *ResponseWriter, r *Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(VersionResponse{Version: c.conf.Version}); err != nil {
		r.Logger.Warn("Error writing response", zap.Error(err))
	}
}

func handleDataselectVersion(c *Core, w *ResponseWriter, r *Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, c.conf.Version)
}

func handleStatus(c *Core, w *ResponseWriter, r *Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}
