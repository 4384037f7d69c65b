package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/leadcrawl"
	"golang.org/x/net/html"
)

// Compile-time interface verification.
var _ leadcrawl.ProfileExtractor = (*Extractor)(nil)

// Fixed fallback patterns applied to visible text when no configured
// selector matches email or phone.
const (
	emailPattern = `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`
	phonePattern = `\+?\d[\d\s().\-]{6,}\d`
)

// Extractor applies campaign selector packs to fetched pages.
type Extractor struct {
	// Text produces the page's visible text for regex fallbacks and
	// RawPageText. When nil, the parsed document's text is used.
	Text leadcrawl.TextExtractor

	// Proximity picks the contact match belonging to a block's name token
	// when a block contains several. Defaults to DOM-subtree distance.
	Proximity ProximityFunc
}

// NewExtractor creates an Extractor with the default proximity strategy.
func NewExtractor(text leadcrawl.TextExtractor) *Extractor {
	return &Extractor{Text: text, Proximity: DOMDistanceProximity}
}

// fieldOrder fixes the iteration order over configured field selectors so
// extraction is deterministic regardless of map order.
var fieldOrder = []leadcrawl.FieldName{
	leadcrawl.FieldPersonName,
	leadcrawl.FieldTitle,
	leadcrawl.FieldBusinessName,
	leadcrawl.FieldEmail,
	leadcrawl.FieldPhone,
	leadcrawl.FieldSocialHandles,
	leadcrawl.FieldServices,
	leadcrawl.FieldStyleVibe,
	leadcrawl.FieldLocation,
	leadcrawl.FieldTeamMembers,
	leadcrawl.FieldPortfolio,
	leadcrawl.FieldBooking,
	leadcrawl.FieldTestimonials,
	leadcrawl.FieldMission,
}

// ExtractProfile extracts one candidate from a profile page. For each
// configured field the selector list is evaluated in order and the first
// selector producing a match wins. Email and phone fall back to fixed
// regexes over the visible text. A page yielding zero populated fields still
// produces a candidate so the caller can detect and flag it.
func (e *Extractor) ExtractProfile(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) (*leadcrawl.LeadCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	text := e.visibleText(doc, page.HTML)

	cand := &leadcrawl.LeadCandidate{
		PageURL:     page.URL,
		ProfileLink: page.URL,
		RawPageText: text,
		SourceURLs:  make(map[leadcrawl.FieldName][]string),
		Stage:       leadcrawl.StageProfile,
	}
	e.populateFields(cand, campaign, doc.Selection, text, page.URL)

	if cand.RawPageText != "" {
		cand.SourceURLs[leadcrawl.FieldRawPageText] = []string{page.URL}
	}
	cand.SourceURLs[leadcrawl.FieldProfileLink] = []string{page.URL}

	return cand, nil
}

// populateFields runs the selector/regex pass for one scope (a whole page or
// one block subtree) and assigns results onto the candidate. Every populated
// field records sourceURL as its provenance.
func (e *Extractor) populateFields(cand *leadcrawl.LeadCandidate, campaign *leadcrawl.CampaignConfig, scope *goquery.Selection, text, sourceURL string) {
	for _, field := range fieldOrder {
		sels := campaign.ProfileFieldSelectors[field]
		matches := firstMatching(sels, scope, text)
		if len(matches) == 0 {
			continue
		}
		if e.assignField(cand, field, matches, sourceURL) {
			cand.SourceURLs[field] = []string{sourceURL}
		}
	}

	// Fixed regex fallback for the contact channels.
	if cand.Email == "" {
		if m, _ := evaluateRegex(emailPattern, text); len(m) > 0 {
			cand.Email = strings.ToLower(m[0].Text)
			cand.SourceURLs[leadcrawl.FieldEmail] = []string{sourceURL}
		}
	}
	if cand.Phone == "" {
		if m, _ := evaluateRegex(phonePattern, text); len(m) > 0 {
			cand.Phone = cleanPhone(m[0].Text)
			cand.SourceURLs[leadcrawl.FieldPhone] = []string{sourceURL}
		}
	}
}

// assignField maps selector matches onto one candidate field. Returns false
// when the matches produced no usable value.
func (e *Extractor) assignField(cand *leadcrawl.LeadCandidate, field leadcrawl.FieldName, matches []Match, sourceURL string) bool {
	switch field {
	case leadcrawl.FieldPersonName:
		cand.Name = matches[0].Text
		return cand.Name != ""
	case leadcrawl.FieldTitle:
		cand.Title = matches[0].Text
		return cand.Title != ""
	case leadcrawl.FieldBusinessName:
		cand.BusinessName = matches[0].Text
		return cand.BusinessName != ""
	case leadcrawl.FieldLocation:
		cand.Location = matches[0].Text
		return cand.Location != ""
	case leadcrawl.FieldMission:
		cand.MissionStatement = matches[0].Text
		return cand.MissionStatement != ""
	case leadcrawl.FieldEmail:
		cand.Email = emailFromMatch(matches[0])
		return cand.Email != ""
	case leadcrawl.FieldPhone:
		cand.Phone = phoneFromMatch(matches[0])
		return cand.Phone != ""
	case leadcrawl.FieldSocialHandles:
		handles := make(map[string]string)
		for _, m := range matches {
			platform, handle := NormalizeSocial(m.Href, m.Text)
			if platform != "" {
				handles[platform] = handle
			}
		}
		if len(handles) == 0 {
			return false
		}
		cand.SocialHandles = handles
		return true
	case leadcrawl.FieldServices:
		cand.ServicesOffered = matchTexts(matches)
		return len(cand.ServicesOffered) > 0
	case leadcrawl.FieldStyleVibe:
		cand.StyleVibeDescriptors = matchTexts(matches)
		return len(cand.StyleVibeDescriptors) > 0
	case leadcrawl.FieldTeamMembers:
		cand.TeamMemberNames = matchTexts(matches)
		return len(cand.TeamMemberNames) > 0
	case leadcrawl.FieldTestimonials:
		cand.Testimonials = matchTexts(matches)
		return len(cand.Testimonials) > 0
	case leadcrawl.FieldPortfolio:
		cand.PortfolioLinks = matchLinks(matches, sourceURL)
		return len(cand.PortfolioLinks) > 0
	case leadcrawl.FieldBooking:
		cand.BookingLinks = matchLinks(matches, sourceURL)
		return len(cand.BookingLinks) > 0
	default:
		return false
	}
}

// visibleText returns the page's visible text via the configured extractor,
// falling back to the parsed document's text.
func (e *Extractor) visibleText(doc *goquery.Document, rawHTML string) string {
	if e.Text != nil {
		if text, err := e.Text.Text(rawHTML); err == nil && text != "" {
			return text
		}
	}
	return normalizeSpace(doc.Text())
}

// emailFromMatch prefers a mailto: href over node text.
func emailFromMatch(m Match) string {
	if addr, ok := strings.CutPrefix(strings.TrimSpace(m.Href), "mailto:"); ok {
		if i := strings.IndexByte(addr, '?'); i != -1 {
			addr = addr[:i]
		}
		return strings.ToLower(strings.TrimSpace(addr))
	}
	if strings.Contains(m.Text, "@") {
		return strings.ToLower(m.Text)
	}
	return ""
}

// phoneFromMatch prefers a tel: href over node text.
func phoneFromMatch(m Match) string {
	if num, ok := strings.CutPrefix(strings.TrimSpace(m.Href), "tel:"); ok {
		return cleanPhone(num)
	}
	return cleanPhone(m.Text)
}

// cleanPhone keeps digits, plus, hyphen and space.
func cleanPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '+' || r == '-' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// socialPlatforms maps known host suffixes to platform names.
var socialPlatforms = map[string]string{
	"instagram.com": "instagram",
	"facebook.com":  "facebook",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"tiktok.com":    "tiktok",
	"youtube.com":   "youtube",
	"pinterest.com": "pinterest",
}

// NormalizeSocial maps an anchor to a canonical platform -> handle pair.
// Returns ("", "") when the anchor is not a recognized social link.
func NormalizeSocial(href, text string) (platform, handle string) {
	if href != "" {
		u, err := url.Parse(href)
		if err == nil && u.Host != "" {
			host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
			if p, ok := socialPlatforms[host]; ok {
				h := strings.Trim(u.Path, "/")
				if h == "" {
					h = text
				}
				return p, strings.TrimPrefix(h, "@")
			}
		}
	}
	// Bare "@handle" text with no resolvable platform is ambiguous; skip it.
	return "", ""
}

func matchTexts(matches []Match) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if m.Text == "" || seen[m.Text] {
			continue
		}
		seen[m.Text] = true
		out = append(out, m.Text)
	}
	return out
}

func matchLinks(matches []Match, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		href := strings.TrimSpace(m.Href)
		if href == "" || isNonHTTPLink(href) {
			continue
		}
		resolved := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, resolved)
	}
	return out
}

// normalizeSpace collapses whitespace runs into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// textOf returns the trimmed visible text under a node.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeSpace(b.String())
}
