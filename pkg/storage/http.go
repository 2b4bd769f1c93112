package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brimdata/wave/rserr"
)

// HTTPEngine fetches objects with GET.  A 204 No Content response is
// treated like 404 since FDSN web services use it to report that no data
// matched a query.
type HTTPEngine struct {
	client *http.Client
}

var _ Engine = (*HTTPEngine)(nil)

func NewHTTP(client *http.Client) *HTTPEngine {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEngine{client: client}
}

func (h *HTTPEngine) Get(ctx context.Context, u *URI) (Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusNoContent:
			return nil, rserr.ErrNotFound("%s", u)
		case http.StatusBadRequest:
			return nil, rserr.ErrInvalid("%s: %s", resp.Status, statusMessage(resp.Body))
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, statusMessage(resp.Body))
	}
	return &notSupportedReaderAt{resp.Body}, nil
}

func statusMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

type notSupportedReaderAt struct{ io.ReadCloser }

func (*notSupportedReaderAt) ReadAt(_ []byte, _ int64) (int, error) { return 0, ErrNotSupported }

func (*HTTPEngine) Put(context.Context, *URI) (io.WriteCloser, error) {
	return nil, ErrNotSupported
}

func (*HTTPEngine) Size(context.Context, *URI) (int64, error) {
	return 0, ErrNotSupported
}

func (*HTTPEngine) Exists(context.Context, *URI) (bool, error) {
	return false, ErrNotSupported
}

func (*HTTPEngine) List(context.Context, *URI) ([]Info, error) {
	return nil, ErrNotSupported
}
