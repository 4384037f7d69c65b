// Package crawl provides lead crawl orchestration. It coordinates fetching,
// link discovery, profile extraction, and per-domain politeness within the
// depth-bounded frontier model: listing pages at depth 0, profile pages at
// depth 1, nothing deeper.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/leadcrawl"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Frontier configuration.
const (
	// frontierExpectedURLs is the expected number of URLs per domain for
	// Bloom filter sizing.
	frontierExpectedURLs = 4096
	// frontierFalsePositiveRate is the acceptable false positive rate for
	// deduplication.
	frontierFalsePositiveRate = 0.01
)

// EmitFunc receives extracted candidates as crawling proceeds. It is called
// from multiple domain workers concurrently and must be safe for concurrent
// use.
type EmitFunc func(cand *leadcrawl.LeadCandidate)

// Orchestrator crawls seed listing pages and streams lead candidates.
//
// Each domain is driven by a single worker goroutine that owns that domain's
// counters and frontier, so domain state never races. Domains progress
// independently; one domain's failures never block another's.
type Orchestrator struct {
	Fetcher  leadcrawl.Fetcher
	Links    leadcrawl.LinkExtractor
	Profiles leadcrawl.ProfileExtractor
	Limiter  leadcrawl.DomainLimiter
	Canon    *leadcrawl.Canonicalizer

	// Concurrency bounds the number of domains crawled at once.
	Concurrency int

	// RetryDelays configures fetch retry backoff. Defaults to 1s, 2s, 4s.
	RetryDelays []time.Duration

	Logger *slog.Logger

	scoreMu sync.Mutex
	scores  map[string]int
}

// RunReport is the outcome of one crawl run.
type RunReport struct {
	RunID     string
	Summaries []*leadcrawl.DomainSummary
	Stats     leadcrawl.CrawlStats
}

// NoteScore records a confidence delta for a domain. Wire this to the merge
// engine's score feedback so the stop rule can observe accumulated lead
// quality.
func (o *Orchestrator) NoteScore(domain string, delta int) {
	o.scoreMu.Lock()
	if o.scores == nil {
		o.scores = make(map[string]int)
	}
	o.scores[domain] += delta
	o.scoreMu.Unlock()
}

func (o *Orchestrator) score(domain string) int {
	o.scoreMu.Lock()
	defer o.scoreMu.Unlock()
	return o.scores[domain]
}

// Run crawls the seed URLs with the given campaign and limits, invoking emit
// for every extracted candidate. Failures are scoped to single URLs and
// reported through per-domain flags; Run returns an error only when the
// context is canceled before any work completes.
func (o *Orchestrator) Run(ctx context.Context, seeds []string, campaign *leadcrawl.CampaignConfig, limits leadcrawl.Limits, emit EmitFunc) (*RunReport, error) {
	if err := campaign.Validate(); err != nil {
		return nil, err
	}
	if limits == (leadcrawl.Limits{}) {
		limits = leadcrawl.DefaultLimits()
	}
	if emit == nil {
		emit = func(*leadcrawl.LeadCandidate) {}
	}

	report := &RunReport{RunID: uuid.NewString()}
	report.Stats.RunID = report.RunID
	report.Stats.StartTime = time.Now()

	// Group canonicalized seeds by domain. Malformed seeds are dropped.
	byDomain := make(map[string][]string)
	for _, seed := range seeds {
		u, err := o.canon().Canonicalize(seed)
		if err != nil {
			o.logger().Warn("dropping malformed seed", "url", seed, "err", err)
			report.Stats.SkippedCount++
			continue
		}
		domain, err := o.canon().Domain(u)
		if err != nil {
			report.Stats.SkippedCount++
			continue
		}
		byDomain[domain] = append(byDomain[domain], u)
	}

	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for domain, domainSeeds := range byDomain {
		g.Go(func() error {
			rep := o.crawlDomain(gctx, domain, domainSeeds, campaign, limits, emit)
			rep.summary.RunID = report.RunID

			mu.Lock()
			report.Summaries = append(report.Summaries, rep.summary)
			report.Stats.TotalPages += rep.summary.RequestsMade
			report.Stats.SuccessCount += rep.succeeded
			report.Stats.FailedCount += rep.failed
			report.Stats.SkippedCount += rep.skipped
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)
	return report, ctx.Err()
}

// domainReport carries one domain worker's counters back to Run.
type domainReport struct {
	summary   *leadcrawl.DomainSummary
	succeeded int
	failed    int
	skipped   int
}

// crawlDomain drives one domain's frontier to exhaustion. Candidates from a
// listing page are emitted only after that page has been fully processed, so
// a profile URL is never fetched before its discovering page completes.
func (o *Orchestrator) crawlDomain(ctx context.Context, domain string, seeds []string, campaign *leadcrawl.CampaignConfig, limits leadcrawl.Limits, emit EmitFunc) *domainReport {
	rep := &domainReport{
		summary: &leadcrawl.DomainSummary{Domain: domain},
	}
	flags := make(map[leadcrawl.Flag]bool)

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	for _, seed := range seeds {
		frontier.Push(FrontierEntry{URL: seed, Depth: 0, Priority: PriorityListing})
	}

	delays := o.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	for {
		// Stop rule: once the domain has scored enough, leftover pagination
		// pages are not worth fetching. Profiles pop before pagination, so
		// this only trips when no profile or listing work remains queued.
		if frontier.Len() > 0 && o.score(domain) >= limits.StopScoreThreshold && frontier.OnlyPagination() {
			flags[leadcrawl.FlagStoppedEarly] = true
			rep.skipped += frontier.Drain()
			break
		}

		entry, ok := frontier.Pop()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			rep.skipped += frontier.Drain() + 1
			break
		}

		// Hard per-domain cap: once reached, queued entries are discarded.
		if rep.summary.RequestsMade >= limits.MaxRequestsPerDomain {
			flags[leadcrawl.FlagCapReached] = true
			rep.skipped += frontier.Drain() + 1
			break
		}
		if entry.Depth == 0 && rep.summary.PagesFetched >= limits.MaxPagesPerDomain {
			flags[leadcrawl.FlagCapReached] = true
			rep.skipped++
			continue
		}

		if o.Limiter != nil {
			if err := o.Limiter.Wait(ctx, domain); err != nil {
				rep.skipped += frontier.Drain() + 1
				break
			}
		}

		rep.summary.RequestsMade++
		res, err := FetchWithRetry(ctx, entry.URL, o.Fetcher.Fetch, o.logf, delays)
		if err != nil {
			rep.failed++
			if leadcrawl.ErrorCode(err) == leadcrawl.EFORBIDDEN {
				flags[leadcrawl.FlagRobotsExcluded] = true
			} else {
				flags[leadcrawl.FlagFetchFailed] = true
			}
			o.logger().Warn("fetch failed", "url", entry.URL, "depth", entry.Depth, "err", err)
			continue
		}
		rep.succeeded++

		pageURL := entry.URL
		if res.FinalURL != "" {
			if u, err := o.canon().Canonicalize(res.FinalURL); err == nil {
				pageURL = u
			}
		}
		page := &leadcrawl.Page{URL: pageURL, HTML: res.HTML}

		switch entry.Depth {
		case 0:
			rep.summary.PagesFetched++
			o.processListing(page, campaign, limits, frontier, rep, emit)
		default:
			o.processProfile(page, campaign, emit)
		}
	}

	for _, flag := range []leadcrawl.Flag{
		leadcrawl.FlagFetchFailed,
		leadcrawl.FlagRobotsExcluded,
		leadcrawl.FlagCapReached,
		leadcrawl.FlagStoppedEarly,
	} {
		if flags[flag] {
			rep.summary.Flags = append(rep.summary.Flags, flag)
		}
	}
	rep.summary.Score = o.score(domain)
	return rep
}

// processListing discovers profile and pagination links on a depth-0 page.
// A listing page without profile links is block-split in place.
func (o *Orchestrator) processListing(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig, limits leadcrawl.Limits, frontier *Frontier, rep *domainReport, emit EmitFunc) {
	links, err := o.Links.ProfileLinks(page, campaign)
	if err != nil {
		o.logger().Warn("profile link discovery failed", "url", page.URL, "err", err)
	}

	if len(links) > 0 && limits.MaxDepth >= 1 {
		// Profile URLs enqueue at depth 1.
		for _, link := range links {
			u, err := o.canon().Canonicalize(link)
			if err != nil {
				continue
			}
			frontier.Push(FrontierEntry{URL: u, Depth: 1, Priority: PriorityProfile})
		}
	} else {
		// The roster content is whatever this page holds: either it has no
		// profile links, or the depth cap forbids fetching them.
		cands, err := o.Profiles.ExtractBlocks(page, campaign)
		if err != nil {
			o.logger().Warn("block extraction failed", "url", page.URL, "err", err)
		}
		for _, cand := range cands {
			emit(cand)
		}
	}

	next, err := o.Links.NextPage(page, campaign)
	if err != nil {
		o.logger().Warn("pagination discovery failed", "url", page.URL, "err", err)
	}
	if next != "" && rep.summary.PagesFetched < limits.MaxPagesPerDomain {
		if u, err := o.canon().Canonicalize(next); err == nil {
			frontier.Push(FrontierEntry{URL: u, Depth: 0, Priority: PriorityPagination})
		}
	}
}

// processProfile extracts one candidate from a depth-1 page. An empty page
// still yields a candidate so downstream flagging stays uniform.
func (o *Orchestrator) processProfile(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig, emit EmitFunc) {
	cand, err := o.Profiles.ExtractProfile(page, campaign)
	if err != nil {
		o.logger().Warn("profile extraction failed", "url", page.URL, "err", err)
		return
	}
	emit(cand)
}

func (o *Orchestrator) canon() *leadcrawl.Canonicalizer {
	if o.Canon == nil {
		return leadcrawl.NewCanonicalizer(nil)
	}
	return o.Canon
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Orchestrator) logf(format string, args ...any) {
	o.logger().Debug("fetch retry", "detail", fmt.Sprintf(format, args...))
}
