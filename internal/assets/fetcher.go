package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves remote asset bytes. Container builders treat it as an
// optional collaborator: a nil Fetcher means remote assets stay as
// reference-only URIs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches assets over HTTP with a size cap.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header on fetch requests.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes caps the response size; larger bodies fail the fetch.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewHTTPFetcher creates a fetcher with a request timeout and a 50 MiB
// default size cap.
func NewHTTPFetcher(timeout time.Duration, opts ...Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "cardex",
		maxBytes:  50 << 20,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and returns the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds %d byte limit", url, f.maxBytes)
	}
	return body, nil
}
