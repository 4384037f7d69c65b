// Package http provides HTTP-based implementations of leadcrawl.Fetcher and
// leadcrawl.SitemapService for static sites that don't require JavaScript
// rendering.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/leadcrawl"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// defaultUserAgent identifies the crawler to sites.
const defaultUserAgent = "leadcrawl/1.0 (+https://github.com/fwojciec/leadcrawl)"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Ensure Fetcher implements leadcrawl.Fetcher at compile time.
var _ leadcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves page HTML using plain HTTP requests. Unlike rod.Fetcher,
// this does not execute JavaScript and is suitable for static sites only.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page at url. Non-2xx statuses map to the fetch error
// taxonomy: 429 and 5xx are EUNAVAILABLE (retryable), other 4xx are
// EFORBIDDEN (permanent), timeouts are ETIMEOUT.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*leadcrawl.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "creating request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, leadcrawl.Errorf(leadcrawl.ETIMEOUT, "fetching %s: %v", url, err)
		}
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode >= 400:
		return nil, leadcrawl.Errorf(leadcrawl.EFORBIDDEN, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "reading body of %s: %v", url, err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &leadcrawl.FetchResult{
		Status:   resp.StatusCode,
		HTML:     string(body),
		FinalURL: finalURL,
	}, nil
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
