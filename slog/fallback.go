package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/leadcrawl"
)

// Ensure LoggingFallbackExtractor implements leadcrawl.FallbackExtractor.
var _ leadcrawl.FallbackExtractor = (*LoggingFallbackExtractor)(nil)

// LoggingFallbackExtractor wraps a FallbackExtractor with logging. Fallback
// calls are billed API requests, so each one is logged at Info.
type LoggingFallbackExtractor struct {
	next   leadcrawl.FallbackExtractor
	logger *slog.Logger
}

// NewLoggingFallbackExtractor creates a new LoggingFallbackExtractor.
func NewLoggingFallbackExtractor(next leadcrawl.FallbackExtractor, logger *slog.Logger) *LoggingFallbackExtractor {
	return &LoggingFallbackExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the call.
func (e *LoggingFallbackExtractor) Extract(ctx context.Context, pageText string, url string) (cand *leadcrawl.LeadCandidate, err error) {
	defer func(begin time.Time) {
		recovered := 0
		if cand != nil {
			recovered = len(cand.SourceURLs)
		}
		e.logger.Info("ai fallback",
			"url", url,
			"chars", len(pageText),
			"fields", recovered,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(ctx, pageText, url)
}
