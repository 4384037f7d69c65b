// Package rod provides a browser-based implementation of leadcrawl.Fetcher
// for roster and profile pages that render their content with JavaScript.
package rod

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/leadcrawl"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page render.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements leadcrawl.Fetcher at compile time.
var _ leadcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-page render timeout.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a Fetcher that launches a managed headless Chrome
// browser. Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	manager, err := NewBrowserManager()
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		manager: manager,
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch navigates to the URL and returns the rendered page. The HTTP status
// of the document response maps to the fetch error taxonomy the same way the
// plain HTTP fetcher maps it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*leadcrawl.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "opening page for %s: %v", url, err)
	}
	defer page.Close()

	page = page.Context(ctx)

	var resp proto.NetworkResponseReceived
	wait := page.WaitEvent(&resp)

	if err := page.Navigate(url); err != nil {
		return nil, mapRenderError(url, err)
	}
	wait()
	if err := page.WaitLoad(); err != nil {
		return nil, mapRenderError(url, err)
	}

	status := 0
	if resp.Response != nil {
		status = resp.Response.Status
	}
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "HTTP %d for %s", status, url)
	case status >= 400:
		return nil, leadcrawl.Errorf(leadcrawl.EFORBIDDEN, "HTTP %d for %s", status, url)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, mapRenderError(url, err)
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	f.manager.notePage()

	return &leadcrawl.FetchResult{
		Status:   status,
		HTML:     html,
		FinalURL: finalURL,
	}, nil
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

func mapRenderError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return leadcrawl.Errorf(leadcrawl.ETIMEOUT, "rendering %s: %v", url, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "rendering %s: %v", url, err)
}
