// Package trafilatura provides a leadcrawl.TextExtractor that isolates a
// page's main visible text, keeping boilerplate (navigation, footers, cookie
// banners) out of regex fallbacks and AI-fallback prompts.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/leadcrawl"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Extractor implements leadcrawl.TextExtractor at compile time.
var _ leadcrawl.TextExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract a page's visible text.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Text returns the main visible text of the page.
func (e *Extractor) Text(html string) (string, error) {
	if html == "" {
		return "", leadcrawl.Errorf(leadcrawl.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(html), opts)
	if err != nil {
		return "", err
	}

	return result.ContentText, nil
}
