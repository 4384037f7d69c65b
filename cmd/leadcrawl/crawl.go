package main

import (
	"fmt"
	"regexp"
	"time"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/fs"
)

const timePrecision = 10 * time.Millisecond

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	campaign, err := deps.Campaigns.Get(c.Campaign)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s. Use 'leadcrawl campaigns' to see available campaigns.\n", leadcrawl.ErrorMessage(err))
		return err
	}

	limits := leadcrawl.Limits{
		MaxDepth:             c.Depth,
		MaxPagesPerDomain:    c.MaxPages,
		MaxRequestsPerDomain: c.MaxRequests,
		StopScoreThreshold:   c.StopScore,
	}

	seeds := c.Seeds
	if c.Sitemap {
		seeds, err = c.expandSeeds(deps, seeds)
		if err != nil {
			return err
		}
	}

	// The engine reports score deltas to the orchestrator so the per-domain
	// stop rule observes accumulated lead quality.
	deps.Engine.StopScoreThreshold = c.StopScore
	deps.Engine.OnScore = deps.Crawler.NoteScore

	emit := func(cand *leadcrawl.LeadCandidate) {
		if _, err := deps.Engine.Ingest(deps.Ctx, cand); err != nil {
			fmt.Fprintf(deps.Stderr, "warning: dropped candidate from %s: %s\n", cand.PageURL, leadcrawl.ErrorMessage(err))
		}
	}

	report, err := deps.Crawler.Run(deps.Ctx, seeds, campaign, limits, emit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", leadcrawl.ErrorMessage(err))
		return err
	}

	leads := deps.Engine.Finalize("")
	for _, lead := range leads {
		lead.RunID = report.RunID
		if err := deps.Sink.SaveLead(deps.Ctx, lead); err != nil {
			return fmt.Errorf("failed to save lead %q: %w", lead.UID, err)
		}
	}
	for _, summary := range report.Summaries {
		if err := deps.Sink.SaveSummary(deps.Ctx, summary); err != nil {
			return fmt.Errorf("failed to save summary for %q: %w", summary.Domain, err)
		}
	}

	if c.Export != "" {
		if err := exportRun(deps, c.Export, report.RunID, leads); err != nil {
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "run %s: %d leads from %d domains (%d requests, %d failed, %d skipped) in %s\n",
		report.RunID, len(leads), len(report.Summaries),
		report.Stats.TotalPages, report.Stats.FailedCount, report.Stats.SkippedCount,
		report.Stats.Duration.Round(timePrecision))

	for _, summary := range report.Summaries {
		fmt.Fprintf(deps.Stdout, "  %s  pages=%d requests=%d score=%d", summary.Domain,
			summary.PagesFetched, summary.RequestsMade, summary.Score)
		for _, flag := range summary.Flags {
			fmt.Fprintf(deps.Stdout, " %s", flag)
		}
		fmt.Fprintln(deps.Stdout)
	}

	return nil
}

// expandSeeds widens the seed list with roster URLs discovered from each
// seed's sitemap. Discovery failures are reported but never fatal.
func (c *CrawlCmd) expandSeeds(deps *Dependencies, seeds []string) ([]string, error) {
	var filter *leadcrawl.URLFilter
	if len(c.Filter) > 0 {
		filter = &leadcrawl.URLFilter{}
		for _, pattern := range c.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
			}
			filter.Include = append(filter.Include, re)
		}
	}

	expanded := seeds
	for _, seed := range seeds {
		urls, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, seed, filter)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "warning: sitemap discovery failed for %s: %s\n", seed, leadcrawl.ErrorMessage(err))
			continue
		}
		expanded = append(expanded, urls...)
	}
	return expanded, nil
}

func exportRun(deps *Dependencies, dir, runID string, leads []*leadcrawl.Lead) error {
	export := fs.NewJSONLSink(dir, runID)
	for _, lead := range leads {
		if err := export.SaveLead(deps.Ctx, lead); err != nil {
			_ = export.Abort()
			return fmt.Errorf("failed to export leads: %w", err)
		}
	}
	if err := export.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}
