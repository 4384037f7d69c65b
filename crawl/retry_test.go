package crawl_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	noDelays := []time.Duration{0, 0, 0}

	t.Run("returns on first success", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetch := func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			attempts++
			return &leadcrawl.FetchResult{Status: 200, HTML: "ok"}, nil
		}

		res, err := crawl.FetchWithRetry(context.Background(), "https://x.example", fetch, nil, noDelays)
		require.NoError(t, err)
		assert.Equal(t, "ok", res.HTML)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetch := func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			attempts++
			if attempts < 3 {
				return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "503")
			}
			return &leadcrawl.FetchResult{Status: 200}, nil
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://x.example", fetch, nil, noDelays)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when budget exhausted", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetch := func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			attempts++
			return nil, leadcrawl.Errorf(leadcrawl.ETIMEOUT, "deadline")
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://x.example", fetch, nil, noDelays)
		require.Equal(t, leadcrawl.ETIMEOUT, leadcrawl.ErrorCode(err))
		assert.Equal(t, 4, attempts, "1 initial + 3 retries")
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetch := func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			attempts++
			return nil, leadcrawl.Errorf(leadcrawl.EFORBIDDEN, "404")
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://x.example", fetch, nil, noDelays)
		require.Equal(t, leadcrawl.EFORBIDDEN, leadcrawl.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("respects context cancellation between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetch := func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			cancel()
			return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "503")
		}

		_, err := crawl.FetchWithRetry(ctx, "https://x.example", fetch, nil, []time.Duration{time.Hour})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("logs retries", func(t *testing.T) {
		t.Parallel()

		var logged int
		logger := func(format string, args ...any) { logged++ }
		attempts := 0
		fetch := func(_ context.Context, _ string) (*leadcrawl.FetchResult, error) {
			attempts++
			if attempts == 1 {
				return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "503")
			}
			return &leadcrawl.FetchResult{Status: 200}, nil
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://x.example", fetch, logger, noDelays)
		require.NoError(t, err)
		assert.Equal(t, 1, logged)
	})
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, crawl.IsTransient(leadcrawl.Errorf(leadcrawl.ETIMEOUT, "deadline")))
	assert.True(t, crawl.IsTransient(leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "503")))
	assert.False(t, crawl.IsTransient(leadcrawl.Errorf(leadcrawl.EFORBIDDEN, "robots")))
	assert.False(t, crawl.IsTransient(leadcrawl.Errorf(leadcrawl.EINVALID, "bad url")))
	assert.False(t, crawl.IsTransient(nil))
}
