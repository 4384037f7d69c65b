package leadcrawl

import "time"

// Limits bounds one crawl run. Per-domain caps are hard limits; the stop
// score threshold drives the cooperative early-stop rule and the
// low-confidence fallback trigger.
type Limits struct {
	// MaxDepth is the deepest level fetched. 0 = listing pages only,
	// 1 = listing pages plus the profile pages they link to.
	MaxDepth int `json:"maxDepth"`

	// MaxPagesPerDomain caps listing-page fetches per domain.
	MaxPagesPerDomain int `json:"maxPagesPerDomain"`

	// MaxRequestsPerDomain caps total fetches per domain.
	MaxRequestsPerDomain int `json:"maxRequestsPerDomain"`

	// StopScoreThreshold is the accumulated domain score at which further
	// pagination for the domain is abandoned, and the per-lead confidence
	// level below which the AI fallback is triggered.
	StopScoreThreshold int `json:"stopScoreThreshold"`
}

// DefaultLimits returns the limits used when the caller provides none.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:             1,
		MaxPagesPerDomain:    10,
		MaxRequestsPerDomain: 200,
		StopScoreThreshold:   12,
	}
}

// DomainSummary is the per-domain operational report produced at the end of
// a run.
type DomainSummary struct {
	RunID        string `json:"runId"`
	Domain       string `json:"domain"`
	PagesFetched int    `json:"pagesFetched"`
	RequestsMade int    `json:"requestsMade"`
	Score        int    `json:"score"`
	Flags        []Flag `json:"flags,omitempty"`
}

// CrawlStats aggregates the outcome of one run.
type CrawlStats struct {
	RunID        string        `json:"runId"`
	TotalPages   int           `json:"totalPages"`
	SuccessCount int           `json:"successCount"`
	FailedCount  int           `json:"failedCount"`
	SkippedCount int           `json:"skippedCount"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Duration     time.Duration `json:"duration"`
}

// ScoreWeights is the configurable weight table for confidence scoring.
// Confidence is a pure function of a lead's current field set under these
// weights, independent of merge order.
type ScoreWeights struct {
	ValidatedEmail   int `json:"validatedEmail" yaml:"validated_email"`
	UnvalidatedEmail int `json:"unvalidatedEmail" yaml:"unvalidated_email"`
	Name             int `json:"name" yaml:"name"`
	Phone            int `json:"phone" yaml:"phone"`
	SocialHandle     int `json:"socialHandle" yaml:"social_handle"`
	Services         int `json:"services" yaml:"services"`
	Location         int `json:"location" yaml:"location"`
	TeamMember       int `json:"teamMember" yaml:"team_member"`
	ThreeSourceBonus int `json:"threeSourceBonus" yaml:"three_source_bonus"`
}

// DefaultScoreWeights returns the default weight table.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		ValidatedEmail:   5,
		UnvalidatedEmail: 2,
		Name:             4,
		Phone:            3,
		SocialHandle:     2,
		Services:         3,
		Location:         2,
		TeamMember:       1,
		ThreeSourceBonus: 2,
	}
}
