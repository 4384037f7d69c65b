package main_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/leadcrawl"
	main "github.com/fwojciec/leadcrawl/cmd/leadcrawl"
	"github.com/fwojciec/leadcrawl/crawl"
	"github.com/fwojciec/leadcrawl/goquery"
	"github.com/fwojciec/leadcrawl/merge"
	"github.com/fwojciec/leadcrawl/mock"
	"github.com/fwojciec/leadcrawl/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingSink records saved leads and summaries.
type capturingSink struct {
	mu        sync.Mutex
	leads     []*leadcrawl.Lead
	summaries []*leadcrawl.DomainSummary
}

func (s *capturingSink) SaveLead(_ context.Context, lead *leadcrawl.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

func (s *capturingSink) SaveSummary(_ context.Context, summary *leadcrawl.DomainSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

func TestCrawlCmd_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://studio.example/artists": `<html><body>
			<div class="artist"><a href="/artists/jane">Jane</a></div>
			<div class="artist"><a href="/artists/bob">Bob</a></div>
		</body></html>`,
		"https://studio.example/artists/jane": `<html><body>
			<h1>Jane Doe</h1>
			<p>Bookings: jane@studio.example</p>
		</body></html>`,
		"https://studio.example/artists/bob": `<html><body>
			<h1>Bob Smith</h1>
			<p>Bookings: bob@studio.example</p>
		</body></html>`,
	}

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*leadcrawl.FetchResult, error) {
			html, ok := pages[url]
			if !ok {
				return nil, leadcrawl.Errorf(leadcrawl.EFORBIDDEN, "unexpected fetch %q", url)
			}
			return &leadcrawl.FetchResult{Status: 200, HTML: html, FinalURL: url}, nil
		},
	}

	campaign := &leadcrawl.CampaignConfig{
		Name:              "tattoo-studios",
		ListLinkSelectors: []leadcrawl.Selector{{Kind: leadcrawl.SelectorCSS, Expr: ".artist a"}},
		ProfileFieldSelectors: map[leadcrawl.FieldName][]leadcrawl.Selector{
			leadcrawl.FieldPersonName: {{Kind: leadcrawl.SelectorCSS, Expr: "h1"}},
			leadcrawl.FieldEmail:      {{Kind: leadcrawl.SelectorRegexOnText, Expr: `[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`}},
		},
	}
	registry := &mock.CampaignRegistry{
		GetFn: func(name string) (*leadcrawl.CampaignConfig, error) {
			if name != campaign.Name {
				return nil, leadcrawl.Errorf(leadcrawl.ENOTFOUND, "campaign %q not found", name)
			}
			return campaign, nil
		},
	}

	engine := merge.NewEngine()
	engine.Validator = &mock.Validator{
		ValidateFn: func(_ context.Context, _ leadcrawl.ContactKind, _ string) (leadcrawl.Validity, error) {
			return leadcrawl.ValidityValid, nil
		},
	}

	sink := &capturingSink{}
	stdout := &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:       context.Background(),
		Stdout:    stdout,
		Stderr:    &bytes.Buffer{},
		Sink:      sink,
		Campaigns: registry,
		Engine:    engine,
		Crawler: &crawl.Orchestrator{
			Fetcher:     fetcher,
			Links:       goquery.NewLinks(),
			Profiles:    goquery.NewExtractor(trafilatura.NewExtractor()),
			Limiter:     crawl.NewDomainLimiter(1000, 0),
			RetryDelays: []time.Duration{},
		},
	}

	cmd := &main.CrawlCmd{
		Campaign:    "tattoo-studios",
		Seeds:       []string{"https://studio.example/artists"},
		Depth:       1,
		MaxPages:    10,
		MaxRequests: 200,
		StopScore:   12,
	}
	require.NoError(t, cmd.Run(deps))

	require.Len(t, sink.leads, 2)
	byName := map[string]*leadcrawl.Lead{}
	for _, lead := range sink.leads {
		byName[lead.Name] = lead
		assert.NotEmpty(t, lead.RunID)
	}
	require.Contains(t, byName, "Jane Doe")
	assert.Equal(t, "jane@studio.example", byName["Jane Doe"].Email)
	assert.True(t, byName["Jane Doe"].EmailValidated)

	require.Len(t, sink.summaries, 1)
	assert.Equal(t, "studio.example", sink.summaries[0].Domain)
	assert.Equal(t, 3, sink.summaries[0].RequestsMade)

	assert.Contains(t, stdout.String(), "2 leads from 1 domains")
}

func TestCrawlCmd_Run_UnknownCampaign(t *testing.T) {
	t.Parallel()

	registry := &mock.CampaignRegistry{
		GetFn: func(name string) (*leadcrawl.CampaignConfig, error) {
			return nil, leadcrawl.Errorf(leadcrawl.ENOTFOUND, "campaign %q not found", name)
		},
	}

	stderr := &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:       context.Background(),
		Stdout:    &bytes.Buffer{},
		Stderr:    stderr,
		Campaigns: registry,
	}

	err := (&main.CrawlCmd{Campaign: "missing"}).Run(deps)

	require.Error(t, err)
	assert.Equal(t, leadcrawl.ENOTFOUND, leadcrawl.ErrorCode(err))
	assert.Contains(t, stderr.String(), "leadcrawl campaigns")
}
