package main

import (
	"context"
	"io"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/crawl"
	"github.com/fwojciec/leadcrawl/merge"
	"github.com/fwojciec/leadcrawl/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	DB        *sqlite.DB
	Leads     leadcrawl.LeadService
	Sink      leadcrawl.LeadSink
	Campaigns leadcrawl.CampaignRegistry
	Sitemaps  leadcrawl.SitemapService
	Crawler   *crawl.Orchestrator
	Engine    *merge.Engine
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Crawl     CrawlCmd     `cmd:"" help:"Crawl seed listing pages and extract leads"`
	Campaigns CampaignsCmd `cmd:"" help:"List available campaign configs"`
	Leads     LeadsCmd     `cmd:"" help:"List stored leads"`
	Show      ShowCmd      `cmd:"" help:"Show one stored lead as JSON"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Campaign string   `arg:"" help:"Campaign name"`
	Seeds    []string `arg:"" help:"Seed listing-page URLs"`

	Render      bool     `short:"r" help:"Render pages with a headless browser"`
	Sitemap     bool     `short:"s" help:"Expand seeds from site sitemaps"`
	Depth       int      `default:"1" help:"Maximum crawl depth (0 = listing pages only)"`
	MaxPages    int      `default:"10" help:"Listing-page fetch cap per domain"`
	MaxRequests int      `default:"200" help:"Total fetch cap per domain"`
	StopScore   int      `default:"12" help:"Accumulated score at which pagination stops"`
	Concurrency int      `short:"c" default:"10" help:"Concurrent domain limit"`
	RPS         float64  `default:"1" help:"Requests per second per domain"`
	Export      string   `short:"e" help:"Directory for JSONL export (optional)"`
	Filter      []string `short:"F" name:"filter" help:"Filter sitemap URLs by regex (repeatable)"`
}

// CampaignsCmd is the "campaigns" subcommand.
type CampaignsCmd struct{}

// LeadsCmd is the "leads" subcommand.
type LeadsCmd struct {
	Domain   string `help:"Filter by domain"`
	RunID    string `name:"run" help:"Filter by run ID"`
	MinScore int    `help:"Minimum confidence score"`
	Flag     string `help:"Filter by flag"`
	Limit    int    `default:"50" help:"Maximum leads to show"`
	Offset   int    `help:"Leads to skip"`
	JSON     bool   `help:"Print leads as JSON Lines"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	UID string `arg:"" help:"Lead UID"`
}
