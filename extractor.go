package leadcrawl

// Page is a fetched page handed to extraction.
type Page struct {
	// URL is the canonical URL the page was fetched from.
	URL string

	// HTML is the raw page markup.
	HTML string
}

// ProfileExtractor applies a campaign's selector pack to a fetched page.
type ProfileExtractor interface {
	// ExtractProfile extracts one candidate from a profile page. A page
	// yielding zero populated fields still produces a candidate (all fields
	// empty) so the caller can detect and flag it.
	ExtractProfile(page *Page, campaign *CampaignConfig) (*LeadCandidate, error)

	// ExtractBlocks splits a listing page without individual profile links
	// into repeating blocks and extracts one candidate per block. Each
	// candidate shares the page URL and carries a distinct block index.
	ExtractBlocks(page *Page, campaign *CampaignConfig) ([]*LeadCandidate, error)
}

// LinkExtractor discovers profile and pagination links on listing pages.
type LinkExtractor interface {
	// ProfileLinks applies the campaign's list-link selectors and returns
	// absolute profile URLs in document order.
	ProfileLinks(page *Page, campaign *CampaignConfig) ([]string, error)

	// NextPage applies the campaign's pagination selectors and returns at
	// most one absolute "next page" URL. Returns "" when no next page is
	// found.
	NextPage(page *Page, campaign *CampaignConfig) (string, error)
}

// TextExtractor produces the visible text of a page, used by the regex
// contact fallback and as LeadCandidate.RawPageText.
type TextExtractor interface {
	Text(html string) (string, error)
}

// Converter transforms HTML into Markdown. The merge engine hands markdown,
// not raw HTML, to the AI fallback.
type Converter interface {
	Convert(html string) (string, error)
}
