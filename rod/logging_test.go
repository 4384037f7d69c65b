package rod_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/mock"
	"github.com/fwojciec/leadcrawl/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFetcher_Delegates(t *testing.T) {
	t.Parallel()

	inner := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*leadcrawl.FetchResult, error) {
			return &leadcrawl.FetchResult{Status: 200, HTML: "<html></html>", FinalURL: url}, nil
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := rod.NewLoggingFetcher(inner, logger)
	res, err := f.Fetch(context.Background(), "https://studio.example")
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	require.NoError(t, f.Close())
}

func TestLoggingFetcher_PropagatesErrors(t *testing.T) {
	t.Parallel()

	inner := &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			return nil, leadcrawl.Errorf(leadcrawl.ETIMEOUT, "render deadline")
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := rod.NewLoggingFetcher(inner, logger)
	_, err := f.Fetch(context.Background(), "https://studio.example")
	require.Equal(t, leadcrawl.ETIMEOUT, leadcrawl.ErrorCode(err))
}
