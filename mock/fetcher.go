package mock

import (
	"context"

	"github.com/fwojciec/leadcrawl"
)

var _ leadcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of leadcrawl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*leadcrawl.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*leadcrawl.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
