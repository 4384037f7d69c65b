package leadcrawl

import "context"

// LeadSink accepts finalized leads for durable storage. The storage format
// is the sink's concern; the core only produces the in-memory record.
type LeadSink interface {
	// SaveLead persists one finalized lead.
	SaveLead(ctx context.Context, lead *Lead) error

	// SaveSummary persists the operational summary for one domain.
	SaveSummary(ctx context.Context, summary *DomainSummary) error
}

// LeadService represents a service for reading stored leads.
type LeadService interface {
	// FindLeadByUID retrieves a lead by UID.
	// Returns ENOTFOUND if the lead does not exist.
	FindLeadByUID(ctx context.Context, uid string) (*Lead, error)

	// FindLeads retrieves leads matching the filter, newest first.
	FindLeads(ctx context.Context, filter LeadFilter) ([]*Lead, error)
}

// LeadFilter represents a filter for FindLeads.
type LeadFilter struct {
	UID      *string `json:"uid"`
	Domain   *string `json:"domain"`
	RunID    *string `json:"runId"`
	MinScore *int    `json:"minScore"`
	Flag     *Flag   `json:"flag"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
