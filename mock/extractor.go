package mock

import "github.com/fwojciec/leadcrawl"

var _ leadcrawl.ProfileExtractor = (*ProfileExtractor)(nil)

// ProfileExtractor is a mock implementation of leadcrawl.ProfileExtractor.
type ProfileExtractor struct {
	ExtractProfileFn func(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) (*leadcrawl.LeadCandidate, error)
	ExtractBlocksFn  func(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) ([]*leadcrawl.LeadCandidate, error)
}

func (e *ProfileExtractor) ExtractProfile(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) (*leadcrawl.LeadCandidate, error) {
	return e.ExtractProfileFn(page, campaign)
}

func (e *ProfileExtractor) ExtractBlocks(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) ([]*leadcrawl.LeadCandidate, error) {
	return e.ExtractBlocksFn(page, campaign)
}

var _ leadcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of leadcrawl.LinkExtractor.
type LinkExtractor struct {
	ProfileLinksFn func(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) ([]string, error)
	NextPageFn     func(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) (string, error)
}

func (e *LinkExtractor) ProfileLinks(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) ([]string, error) {
	return e.ProfileLinksFn(page, campaign)
}

func (e *LinkExtractor) NextPage(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) (string, error) {
	return e.NextPageFn(page, campaign)
}

var _ leadcrawl.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of leadcrawl.TextExtractor.
type TextExtractor struct {
	TextFn func(html string) (string, error)
}

func (e *TextExtractor) Text(html string) (string, error) {
	return e.TextFn(html)
}

var _ leadcrawl.Converter = (*Converter)(nil)

// Converter is a mock implementation of leadcrawl.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
