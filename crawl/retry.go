package crawl

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/leadcrawl"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*leadcrawl.FetchResult, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// IsTransient reports whether a fetch error is worth retrying. Timeouts and
// 5xx-class failures are transient; robots exclusions and 4xx responses are
// permanent.
func IsTransient(err error) bool {
	switch leadcrawl.ErrorCode(err) {
	case leadcrawl.ETIMEOUT, leadcrawl.EUNAVAILABLE:
		return true
	default:
		return false
	}
}

// FetchWithRetry attempts a fetch with exponential backoff and random
// jitter. Each delay is extended by up to half its length of jitter.
// Permanent failures are returned immediately without retrying. The logger
// function, if provided, is called for each retry attempt.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, logger LogFunc, delays []time.Duration) (*leadcrawl.FetchResult, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := fetch(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
		if attempt >= maxAttempts-1 {
			break
		}

		if logger != nil {
			logger("  retry %s (attempt %d): %v", url, attempt+2, err)
		}

		delay := delays[attempt]
		delay += rand.N(delay/2 + 1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
