package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"safeclient/internal/domain"
)

// maxBody caps how much of a response is read into memory.
const maxBody = 64 << 20

var errBodyTooLarge = errors.New("response body exceeds limit")

// HTTP is a domain.Transport over net/http.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a transport rooted at base (e.g. http://localhost:8100).
// A nil client gets a pooled client with no global timeout: callers bound each
// exchange with their context, and the handshake needs a much longer bound
// than ordinary requests.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: client}
}

var _ domain.Transport = (*HTTP)(nil)

func (c *HTTP) Do(ctx context.Context, r *domain.TransportRequest) (*domain.TransportResponse, error) {
	u, err := url.Parse(c.Base + r.Path)
	if err != nil {
		return nil, fmt.Errorf("transport: bad url %s%s: %w", c.Base, r.Path, err)
	}
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("transport: build %s %s: %w", r.Method, r.Path, err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	op := r.Method + " " + r.Path
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	if int64(len(b)) > maxBody {
		return nil, &domain.NetworkError{Op: op, Err: errBodyTooLarge}
	}
	return &domain.TransportResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   b,
	}, nil
}
