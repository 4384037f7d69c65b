package crawl

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fwojciec/leadcrawl"
	"golang.org/x/time/rate"
)

var _ leadcrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain rate limiting using token buckets, plus
// a bounded random delay between consecutive requests to the same domain.
// It creates a separate rate limiter for each domain, allowing concurrent
// requests to different domains while enforcing politeness within each.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	jitter   time.Duration
}

// NewDomainLimiter creates a DomainLimiter with the specified requests per
// second limit. Each domain gets its own limiter with a burst of 1 (no
// bursting allowed). A non-zero jitter adds up to that much random delay
// after each rate-limit wait.
func NewDomainLimiter(rps float64, jitter time.Duration) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		jitter:   jitter,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	if d.jitter > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rand.N(d.jitter)):
		}
	}
	return nil
}
