package leadcrawl

import "time"

// Stage identifies the extraction pass that produced a candidate.
type Stage string

// Extraction stages in merge-precedence order (highest first, except
// aiFallback which only fills fields left empty by deterministic stages).
const (
	StageProfile    Stage = "profile"
	StageBlock      Stage = "block"
	StageContact    Stage = "contact"
	StageAIFallback Stage = "aiFallback"
)

// Flag marks a quality or processing condition on a lead or domain.
type Flag string

// Processing flags.
const (
	FlagLowConfidence  Flag = "LOW_CONFIDENCE"
	FlagNoName         Flag = "NO_NAME"
	FlagNoEmail        Flag = "NO_EMAIL"
	FlagFetchFailed    Flag = "FETCH_FAILED"
	FlagFallbackSpent  Flag = "FALLBACK_BUDGET_EXCEEDED"
	FlagStoppedEarly   Flag = "STOPPED_EARLY"
	FlagCapReached     Flag = "CAP_REACHED"
	FlagRobotsExcluded Flag = "ROBOTS_EXCLUDED"
)

// FieldName identifies a lead field for selector configuration and
// per-field provenance.
type FieldName string

// Lead fields addressable by selector packs and sourceUrls entries.
const (
	FieldPersonName    FieldName = "name"
	FieldTitle         FieldName = "title"
	FieldBusinessName  FieldName = "businessName"
	FieldEmail         FieldName = "email"
	FieldPhone         FieldName = "phone"
	FieldSocialHandles FieldName = "socialHandles"
	FieldServices      FieldName = "servicesOffered"
	FieldStyleVibe     FieldName = "styleVibeDescriptors"
	FieldLocation      FieldName = "location"
	FieldTeamMembers   FieldName = "teamMemberNames"
	FieldPortfolio     FieldName = "portfolioLinks"
	FieldBooking       FieldName = "bookingLinks"
	FieldTestimonials  FieldName = "testimonials"
	FieldMission       FieldName = "missionStatement"
	FieldRawPageText   FieldName = "rawPageText"
	FieldProfileLink   FieldName = "profileLink"
)

// LeadCandidate is a partial observation of one real-world entity emitted by
// a single extraction pass. Candidates are immutable once produced; the
// merge engine reconciles them into canonical Leads.
type LeadCandidate struct {
	Name         string `json:"name,omitempty"`
	Title        string `json:"title,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`

	// SocialHandles maps a normalized platform name (e.g. "instagram") to a
	// handle or profile URL.
	SocialHandles map[string]string `json:"socialHandles,omitempty"`

	ServicesOffered      []string `json:"servicesOffered,omitempty"`
	StyleVibeDescriptors []string `json:"styleVibeDescriptors,omitempty"`
	Location             string   `json:"location,omitempty"`
	TeamMemberNames      []string `json:"teamMemberNames,omitempty"`
	PortfolioLinks       []string `json:"portfolioLinks,omitempty"`
	BookingLinks         []string `json:"bookingLinks,omitempty"`
	Testimonials         []string `json:"testimonials,omitempty"`
	MissionStatement     string   `json:"missionStatement,omitempty"`
	RawPageText          string   `json:"rawPageText,omitempty"`

	// PageURL is the canonical URL of the page this candidate was extracted
	// from. Always set.
	PageURL string `json:"pageUrl"`

	// ProfileLink is the canonical URL of the entity's own profile page,
	// when one exists. For block-split candidates it equals PageURL.
	ProfileLink string `json:"profileLink,omitempty"`

	// BlockIndex disambiguates candidates split from the same listing page.
	// Nil for candidates that did not come from block splitting.
	BlockIndex *int `json:"blockIndex,omitempty"`

	// SourceURLs records, per populated field, the URL(s) the value came
	// from. Field-level granularity does not extend below page URL.
	SourceURLs map[FieldName][]string `json:"sourceUrls,omitempty"`

	// EmailValidated reports whether Email passed external validation.
	EmailValidated bool `json:"emailValidated,omitempty"`

	Stage Stage `json:"stage"`
}

// Validate returns an error if the candidate is structurally invalid.
func (c *LeadCandidate) Validate() error {
	if c.PageURL == "" {
		return Errorf(EINVALID, "candidate page URL required")
	}
	switch c.Stage {
	case StageProfile, StageBlock, StageContact, StageAIFallback:
	default:
		return Errorf(EINVALID, "unknown extraction stage %q", c.Stage)
	}
	return nil
}

// HasContactChannel reports whether the candidate carries at least one
// direct contact channel.
func (c *LeadCandidate) HasContactChannel() bool {
	if c.Email != "" || c.Phone != "" {
		return true
	}
	for _, v := range c.SocialHandles {
		if v != "" {
			return true
		}
	}
	return false
}

// Lead is the canonical, deduplicated record describing one real-world
// person or business. A Lead is produced from one or more LeadCandidate
// observations; every non-empty field has a non-empty SourceURLs entry.
type Lead struct {
	UID string `json:"uid"`

	// RunID identifies the crawl run that produced the lead. It is assigned
	// when the lead is persisted, not during merging.
	RunID string `json:"runId,omitempty"`

	Name          string            `json:"name,omitempty"`
	Title         string            `json:"title,omitempty"`
	BusinessName  string            `json:"businessName,omitempty"`
	Email         string            `json:"email,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	SocialHandles map[string]string `json:"socialHandles,omitempty"`

	ServicesOffered      []string `json:"servicesOffered,omitempty"`
	StyleVibeDescriptors []string `json:"styleVibeDescriptors,omitempty"`
	Location             string   `json:"location,omitempty"`
	TeamMemberNames      []string `json:"teamMemberNames,omitempty"`
	PortfolioLinks       []string `json:"portfolioLinks,omitempty"`
	BookingLinks         []string `json:"bookingLinks,omitempty"`
	Testimonials         []string `json:"testimonials,omitempty"`
	MissionStatement     string   `json:"missionStatement,omitempty"`
	RawPageText          string   `json:"rawPageText,omitempty"`

	PageURL     string `json:"pageUrl"`
	ProfileLink string `json:"profileLink,omitempty"`

	SourceURLs map[FieldName][]string `json:"sourceUrls,omitempty"`

	// EmailValidated reports whether Email passed external validation.
	// A validated email is a strong-identity value and is never overwritten
	// by a weaker one during merging.
	EmailValidated bool `json:"emailValidated,omitempty"`

	Confidence int    `json:"confidence"`
	Flags      []Flag `json:"flags,omitempty"`

	// MergedFrom records the stage of every candidate absorbed into this
	// lead, in merge order.
	MergedFrom []Stage `json:"mergedFrom,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the lead contains invalid fields.
func (l *Lead) Validate() error {
	if l.UID == "" {
		return Errorf(EINVALID, "lead UID required")
	}
	if l.PageURL == "" {
		return Errorf(EINVALID, "lead page URL required")
	}
	return nil
}

// HasFlag reports whether the lead carries the given flag.
func (l *Lead) HasFlag(flag Flag) bool {
	for _, f := range l.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends a flag if not already present.
func (l *Lead) AddFlag(flag Flag) {
	if !l.HasFlag(flag) {
		l.Flags = append(l.Flags, flag)
	}
}

// HasContactChannel reports whether the lead carries at least one direct
// contact channel.
func (l *Lead) HasContactChannel() bool {
	if l.Email != "" || l.Phone != "" {
		return true
	}
	for _, v := range l.SocialHandles {
		if v != "" {
			return true
		}
	}
	return false
}

// IsThreeSourceValid reports whether at least two distinct contact channels
// are present among email, phone, and social handles.
func (l *Lead) IsThreeSourceValid() bool {
	channels := 0
	if l.Email != "" {
		channels++
	}
	if l.Phone != "" {
		channels++
	}
	for _, v := range l.SocialHandles {
		if v != "" {
			channels++
			break
		}
	}
	return channels >= 2
}
