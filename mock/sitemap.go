package mock

import (
	"context"

	"github.com/fwojciec/leadcrawl"
)

var _ leadcrawl.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of leadcrawl.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *leadcrawl.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *leadcrawl.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
