package goquery_test

import (
	"testing"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCampaign() *leadcrawl.CampaignConfig {
	return &leadcrawl.CampaignConfig{
		Name: "test",
		ListLinkSelectors: []leadcrawl.Selector{
			{Kind: leadcrawl.SelectorCSS, Expr: ".roster a.profile"},
		},
		PaginationSelectors: []leadcrawl.Selector{
			{Kind: leadcrawl.SelectorCSS, Expr: "a.next"},
		},
		ProfileFieldSelectors: map[leadcrawl.FieldName][]leadcrawl.Selector{
			leadcrawl.FieldPersonName: {
				{Kind: leadcrawl.SelectorCSS, Expr: "h1"},
				{Kind: leadcrawl.SelectorCSS, Expr: ".name"},
			},
			leadcrawl.FieldTitle: {
				{Kind: leadcrawl.SelectorCSS, Expr: ".title"},
			},
			leadcrawl.FieldEmail: {
				{Kind: leadcrawl.SelectorCSS, Expr: `a[href^="mailto:"]`},
			},
			leadcrawl.FieldPhone: {
				{Kind: leadcrawl.SelectorCSS, Expr: `a[href^="tel:"]`},
			},
			leadcrawl.FieldSocialHandles: {
				{Kind: leadcrawl.SelectorCSS, Expr: ".socials a"},
			},
			leadcrawl.FieldServices: {
				{Kind: leadcrawl.SelectorCSS, Expr: ".services li"},
			},
		},
	}
}

func TestExtractor_ExtractProfile_selector_fields(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1>Jane Doe</h1>
		<p class="title">Wedding Photographer</p>
		<a href="mailto:jane@example.com?subject=hi">Email me</a>
		<a href="tel:+1 (555) 010-0100">Call</a>
		<div class="socials">
			<a href="https://www.instagram.com/janedoe/">IG</a>
			<a href="https://x.com/janedoe">X</a>
		</div>
		<ul class="services"><li>Weddings</li><li>Portraits</li><li>Weddings</li></ul>
	</body></html>`

	e := goquery.NewExtractor(nil)
	cand, err := e.ExtractProfile(&leadcrawl.Page{URL: "https://example.com/jane", HTML: html}, testCampaign())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", cand.Name)
	assert.Equal(t, "Wedding Photographer", cand.Title)
	assert.Equal(t, "jane@example.com", cand.Email)
	assert.Equal(t, "+1 555 010-0100", cand.Phone)
	assert.Equal(t, map[string]string{"instagram": "janedoe", "twitter": "janedoe"}, cand.SocialHandles)
	assert.Equal(t, []string{"Weddings", "Portraits"}, cand.ServicesOffered)
	assert.Equal(t, leadcrawl.StageProfile, cand.Stage)

	// Scenario: every populated field records the page URL as provenance.
	assert.Equal(t, []string{"https://example.com/jane"}, cand.SourceURLs[leadcrawl.FieldPersonName])
	assert.Equal(t, []string{"https://example.com/jane"}, cand.SourceURLs[leadcrawl.FieldEmail])
}

func TestExtractor_ExtractProfile_first_matching_selector_wins(t *testing.T) {
	t.Parallel()

	// h1 is configured before .name; both are present.
	html := `<html><body><h1>From H1</h1><p class="name">From Class</p></body></html>`

	e := goquery.NewExtractor(nil)
	cand, err := e.ExtractProfile(&leadcrawl.Page{URL: "https://example.com/p", HTML: html}, testCampaign())
	require.NoError(t, err)

	assert.Equal(t, "From H1", cand.Name)
}

func TestExtractor_ExtractProfile_regex_fallback_for_contacts(t *testing.T) {
	t.Parallel()

	// No mailto/tel anchors; email and phone only appear in visible text.
	html := `<html><body>
		<h1>Omar Reyes</h1>
		<p>Reach me at Omar.Reyes@Example.COM or +1 555-010-0199.</p>
	</body></html>`

	e := goquery.NewExtractor(nil)
	cand, err := e.ExtractProfile(&leadcrawl.Page{URL: "https://example.com/omar", HTML: html}, testCampaign())
	require.NoError(t, err)

	assert.Equal(t, "omar.reyes@example.com", cand.Email)
	assert.Equal(t, "+1 555-010-0199", cand.Phone)
	assert.Equal(t, []string{"https://example.com/omar"}, cand.SourceURLs[leadcrawl.FieldEmail])
	assert.Equal(t, []string{"https://example.com/omar"}, cand.SourceURLs[leadcrawl.FieldPhone])
}

func TestExtractor_ExtractProfile_empty_page_still_produces_candidate(t *testing.T) {
	t.Parallel()

	e := goquery.NewExtractor(nil)
	cand, err := e.ExtractProfile(&leadcrawl.Page{URL: "https://example.com/empty", HTML: "<html><body></body></html>"}, testCampaign())
	require.NoError(t, err)
	require.NotNil(t, cand)

	assert.Empty(t, cand.Name)
	assert.Empty(t, cand.Email)
	assert.Equal(t, "https://example.com/empty", cand.PageURL)
}

func TestExtractor_ExtractProfile_xpath_selector(t *testing.T) {
	t.Parallel()

	campaign := &leadcrawl.CampaignConfig{
		Name: "xpath",
		ProfileFieldSelectors: map[leadcrawl.FieldName][]leadcrawl.Selector{
			leadcrawl.FieldPersonName: {
				{Kind: leadcrawl.SelectorXPath, Expr: `//div[@id="hero"]/h2`},
			},
		},
	}

	html := `<html><body><div id="hero"><h2>Ada Lovelace</h2></div></body></html>`

	e := goquery.NewExtractor(nil)
	cand, err := e.ExtractProfile(&leadcrawl.Page{URL: "https://example.com/ada", HTML: html}, campaign)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", cand.Name)
}

func TestExtractor_ExtractProfile_regex_selector(t *testing.T) {
	t.Parallel()

	campaign := &leadcrawl.CampaignConfig{
		Name: "regex",
		ProfileFieldSelectors: map[leadcrawl.FieldName][]leadcrawl.Selector{
			leadcrawl.FieldLocation: {
				{Kind: leadcrawl.SelectorRegexOnText, Expr: `Based in [A-Z][a-z]+`},
			},
		},
	}

	html := `<html><body><p>Based in Lisbon, available worldwide.</p></body></html>`

	e := goquery.NewExtractor(nil)
	cand, err := e.ExtractProfile(&leadcrawl.Page{URL: "https://example.com/p", HTML: html}, campaign)
	require.NoError(t, err)

	assert.Equal(t, "Based in Lisbon", cand.Location)
}

func TestNormalizeSocial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href         string
		text         string
		wantPlatform string
		wantHandle   string
	}{
		{"https://www.instagram.com/janedoe/", "IG", "instagram", "janedoe"},
		{"https://x.com/janedoe", "X", "twitter", "janedoe"},
		{"https://www.linkedin.com/in/janedoe", "LinkedIn", "linkedin", "in/janedoe"},
		{"https://example.com/about", "About", "", ""},
		{"", "@janedoe", "", ""},
	}

	for _, tt := range tests {
		platform, handle := goquery.NormalizeSocial(tt.href, tt.text)
		assert.Equal(t, tt.wantPlatform, platform, "href %q", tt.href)
		assert.Equal(t, tt.wantHandle, handle, "href %q", tt.href)
	}
}
