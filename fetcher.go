package leadcrawl

import "context"

// FetchResult holds the outcome of fetching one page.
type FetchResult struct {
	// Status is the final HTTP status code.
	Status int

	// HTML is the (possibly JavaScript-rendered) page markup.
	HTML string

	// FinalURL is the URL after redirects. Equal to the requested URL when
	// no redirect occurred.
	FinalURL string
}

// Fetcher retrieves page HTML from URLs. Whether an implementation renders
// JavaScript is opaque to the caller.
//
// Failures are reported through error codes: ETIMEOUT for deadline
// exhaustion, EUNAVAILABLE for transient failures worth retrying (5xx, 429),
// EFORBIDDEN for robots-disallowed or permanent 4xx responses.
type Fetcher interface {
	// Fetch retrieves the page at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases fetcher resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
