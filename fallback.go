package leadcrawl

import "context"

// FallbackExtractor recovers lead fields from raw page text when
// deterministic extraction produced a low-confidence lead. Implementations
// are typically LLM-backed and are invoked only for flagged leads, bounded
// by a per-lead retry budget.
type FallbackExtractor interface {
	// Extract produces an aiFallback-stage candidate from the page text.
	// The url is recorded as provenance for every recovered field.
	Extract(ctx context.Context, pageText string, url string) (*LeadCandidate, error)
}
