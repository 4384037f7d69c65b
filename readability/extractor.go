// Package readability provides an alternative leadcrawl.TextExtractor built
// on go-readability. It tends to keep more of the page than trafilatura,
// which suits sparse profile pages where every line may matter.
package readability

import (
	"strings"

	"github.com/fwojciec/leadcrawl"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements leadcrawl.TextExtractor at compile time.
var _ leadcrawl.TextExtractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract a page's visible text.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Text returns the readable text content of the page.
func (e *Extractor) Text(html string) (string, error) {
	if html == "" {
		return "", leadcrawl.Errorf(leadcrawl.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return "", err
	}

	return article.TextContent, nil
}
