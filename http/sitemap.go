package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/leadcrawl"
)

// maxSitemaps bounds how many sitemap documents one discovery will fetch.
const maxSitemaps = 50

// Ensure SitemapService implements leadcrawl.SitemapService.
var _ leadcrawl.SitemapService = (*SitemapService)(nil)

// SitemapService discovers roster-page seed URLs from website sitemaps.
// Campaigns whose listing pages are enumerated in sitemaps rather than
// linked from a single roster use this to widen their seed lists.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client, userAgent: defaultUserAgent}
}

// DiscoverURLs finds URLs from a site's sitemap. It checks robots.txt for
// Sitemap directives first, then falls back to /sitemap.xml. Sitemap indexes
// are resolved recursively. Returns an empty slice (not nil) when the site
// publishes no sitemap.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *leadcrawl.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "invalid base URL %q", baseURL)
	}

	root := *base
	root.Path = ""
	root.RawQuery = ""
	root.Fragment = ""

	sitemaps := s.sitemapURLs(ctx, &root)
	if len(sitemaps) == 0 {
		return []string{}, nil
	}

	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	var out []string

	for _, sm := range sitemaps {
		urls, err := s.walkSitemap(ctx, sm, seenSitemaps)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A broken sitemap doesn't invalidate the others.
			continue
		}
		for _, u := range urls {
			if seenURLs[u] || !filter.Match(u) {
				continue
			}
			seenURLs[u] = true
			out = append(out, u)
		}
	}

	if out == nil {
		out = []string{}
	}
	return out, nil
}

// sitemapURLs finds sitemap locations from robots.txt, falling back to the
// conventional /sitemap.xml.
func (s *SitemapService) sitemapURLs(ctx context.Context, root *url.URL) []string {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if sitemaps := s.robotsSitemaps(ctx, robotsURL); len(sitemaps) > 0 {
		return sitemaps
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	if s.exists(ctx, fallback) {
		return []string{fallback}
	}
	return nil
}

// robotsSitemaps extracts Sitemap: directives from robots.txt.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) []string {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if u := strings.TrimSpace(line[len("sitemap:"):]); u != "" {
			sitemaps = append(sitemaps, u)
		}
	}
	return sitemaps
}

// walkSitemap fetches and parses one sitemap document, recursing into
// sitemap indexes.
func (s *SitemapService) walkSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] || len(seen) >= maxSitemaps {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "parsing sitemap %s: %v", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var out []string
		for _, el := range root.SelectElements("sitemap") {
			loc := locText(el)
			if loc == "" {
				continue
			}
			urls, err := s.walkSitemap(ctx, loc, seen)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				continue
			}
			out = append(out, urls...)
		}
		return out, nil
	}

	var out []string
	for _, el := range root.SelectElements("url") {
		if loc := locText(el); loc != "" {
			out = append(out, loc)
		}
	}
	return out, nil
}

func locText(el *etree.Element) string {
	loc := el.SelectElement("loc")
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(loc.Text())
}

func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "creating request: %v", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "fetching %s: %v", targetURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

func (s *SitemapService) exists(ctx context.Context, targetURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
