package mock

import (
	"context"

	"github.com/fwojciec/leadcrawl"
)

var _ leadcrawl.FallbackExtractor = (*FallbackExtractor)(nil)

// FallbackExtractor is a mock implementation of leadcrawl.FallbackExtractor.
type FallbackExtractor struct {
	ExtractFn func(ctx context.Context, pageText string, url string) (*leadcrawl.LeadCandidate, error)
}

func (f *FallbackExtractor) Extract(ctx context.Context, pageText string, url string) (*leadcrawl.LeadCandidate, error) {
	return f.ExtractFn(ctx, pageText, url)
}
