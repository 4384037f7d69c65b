package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/leadcrawl"
)

// Ensure LoggingLeadSink implements leadcrawl.LeadSink.
var _ leadcrawl.LeadSink = (*LoggingLeadSink)(nil)

// LoggingLeadSink wraps a LeadSink with debug logging of persisted records.
type LoggingLeadSink struct {
	next   leadcrawl.LeadSink
	logger *slog.Logger
}

// NewLoggingLeadSink creates a new LoggingLeadSink.
func NewLoggingLeadSink(next leadcrawl.LeadSink, logger *slog.Logger) *LoggingLeadSink {
	return &LoggingLeadSink{next: next, logger: logger}
}

// SaveLead delegates to the wrapped sink and logs the lead.
func (s *LoggingLeadSink) SaveLead(ctx context.Context, lead *leadcrawl.Lead) (err error) {
	defer func() {
		s.logger.Debug("lead saved",
			"uid", lead.UID,
			"confidence", lead.Confidence,
			"flags", len(lead.Flags),
			"err", err,
		)
	}()
	return s.next.SaveLead(ctx, lead)
}

// SaveSummary delegates to the wrapped sink and logs the summary.
func (s *LoggingLeadSink) SaveSummary(ctx context.Context, summary *leadcrawl.DomainSummary) (err error) {
	defer func() {
		s.logger.Info("domain summary saved",
			"domain", summary.Domain,
			"pages", summary.PagesFetched,
			"requests", summary.RequestsMade,
			"score", summary.Score,
			"err", err,
		)
	}()
	return s.next.SaveSummary(ctx, summary)
}
