package mock

import (
	"context"

	"github.com/fwojciec/leadcrawl"
)

var _ leadcrawl.LeadSink = (*LeadSink)(nil)

// LeadSink is a mock implementation of leadcrawl.LeadSink.
type LeadSink struct {
	SaveLeadFn    func(ctx context.Context, lead *leadcrawl.Lead) error
	SaveSummaryFn func(ctx context.Context, summary *leadcrawl.DomainSummary) error
}

func (s *LeadSink) SaveLead(ctx context.Context, lead *leadcrawl.Lead) error {
	return s.SaveLeadFn(ctx, lead)
}

func (s *LeadSink) SaveSummary(ctx context.Context, summary *leadcrawl.DomainSummary) error {
	return s.SaveSummaryFn(ctx, summary)
}

var _ leadcrawl.LeadService = (*LeadService)(nil)

// LeadService is a mock implementation of leadcrawl.LeadService.
type LeadService struct {
	FindLeadByUIDFn func(ctx context.Context, uid string) (*leadcrawl.Lead, error)
	FindLeadsFn     func(ctx context.Context, filter leadcrawl.LeadFilter) ([]*leadcrawl.Lead, error)
}

func (s *LeadService) FindLeadByUID(ctx context.Context, uid string) (*leadcrawl.Lead, error) {
	return s.FindLeadByUIDFn(ctx, uid)
}

func (s *LeadService) FindLeads(ctx context.Context, filter leadcrawl.LeadFilter) ([]*leadcrawl.Lead, error) {
	return s.FindLeadsFn(ctx, filter)
}
