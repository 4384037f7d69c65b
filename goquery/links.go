package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/leadcrawl"
)

// Compile-time interface verification.
var _ leadcrawl.LinkExtractor = (*Links)(nil)

// paginationParam matches the common page-number query parameters used as a
// heuristic fallback when no pagination selector matches.
var paginationParam = mustCache(`(?:^|[?&])(?:page|p|start)=\d+`)

func mustCache(expr string) func(string) bool {
	re, err := compileCached(expr)
	if err != nil {
		panic(err)
	}
	return re.MatchString
}

// Links discovers profile and pagination links on listing pages using the
// campaign's selector pack.
type Links struct{}

// NewLinks creates a new Links extractor.
func NewLinks() *Links {
	return &Links{}
}

// ProfileLinks applies the campaign's list-link selectors in order and
// returns the absolute profile URLs of the first selector that matches, in
// document order. External links, non-HTTP links (mailto:, javascript:) and
// self-references are dropped.
func (l *Links) ProfileLinks(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) ([]string, error) {
	base, doc, err := parsePage(page)
	if err != nil {
		return nil, err
	}

	matches := firstMatching(campaign.ListLinkSelectors, doc.Selection, "")

	var links []string
	seen := make(map[string]bool)
	for _, m := range matches {
		resolved := resolveHref(base, m.Href)
		if resolved == "" || !isSameHost(base, resolved) || seen[resolved] {
			continue
		}
		seen[resolved] = true
		links = append(links, resolved)
	}
	return links, nil
}

// NextPage applies the campaign's pagination selectors and returns at most
// one absolute "next page" URL. When no selector matches it falls back to
// anchors carrying rel="next" or a page-number query parameter. Returns ""
// when no next page exists.
func (l *Links) NextPage(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) (string, error) {
	base, doc, err := parsePage(page)
	if err != nil {
		return "", err
	}

	matches := firstMatching(campaign.PaginationSelectors, doc.Selection, "")
	for _, m := range matches {
		if resolved := resolveHref(base, m.Href); resolved != "" && isSameHost(base, resolved) {
			return resolved, nil
		}
	}

	// Heuristic fallback: rel="next" anchors, then page-param anchors.
	next := ""
	doc.Find(`a[rel~="next"][href]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if resolved := resolveHref(base, href); resolved != "" && isSameHost(base, resolved) {
			next = resolved
			return false
		}
		return true
	})
	if next != "" {
		return next, nil
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		resolved := resolveHref(base, href)
		if resolved == "" || !isSameHost(base, resolved) {
			return true
		}
		if paginationParam(resolved) && resolved != page.URL {
			next = resolved
			return false
		}
		return true
	})
	return next, nil
}

func parsePage(page *leadcrawl.Page) (*url.URL, *goquery.Document, error) {
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, nil, leadcrawl.Errorf(leadcrawl.EINVALID, "invalid page URL: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, nil, leadcrawl.Errorf(leadcrawl.EINVALID, "failed to parse HTML: %v", err)
	}
	return base, doc, nil
}

// resolveHref resolves a relative href against the base URL. Returns empty
// string for unparseable, non-HTTP, or self-referential links. Fragments are
// stripped for deduplication.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameHost checks if the resolved URL has the same host as the base URL.
// Exact host matching - subdomains are considered different hosts.
func isSameHost(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
