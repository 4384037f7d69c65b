// Package gemini implements the AI fallback using Google Gemini. It is
// invoked only for low-confidence leads, bounded by the merge engine's
// per-lead budget.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/leadcrawl"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// Ensure Extractor implements leadcrawl.FallbackExtractor at compile time.
var _ leadcrawl.FallbackExtractor = (*Extractor)(nil)

// Extractor implements leadcrawl.FallbackExtractor using Google Gemini.
type Extractor struct {
	client *genai.Client

	// conv, when set, converts HTML-looking page text to Markdown before
	// prompting. Markdown is cheaper to send and easier to attribute.
	conv leadcrawl.Converter
}

// NewExtractor creates a new Extractor. The converter is optional.
func NewExtractor(client *genai.Client, conv leadcrawl.Converter) *Extractor {
	return &Extractor{client: client, conv: conv}
}

// Extract recovers lead fields from the page text. The returned candidate
// carries the aiFallback stage and records url as provenance for every
// populated field.
func (e *Extractor) Extract(ctx context.Context, pageText string, url string) (*leadcrawl.LeadCandidate, error) {
	if strings.TrimSpace(pageText) == "" {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "page text required")
	}
	if url == "" {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "page URL required")
	}

	if e.conv != nil && strings.Contains(pageText, "<") {
		if md, err := e.conv.Convert(pageText); err == nil {
			pageText = md
		}
	}

	result, err := e.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(pageText, url)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "gemini: %v", err)
	}
	if result == nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINTERNAL, "gemini returned nil result")
	}

	return ParseResponse([]byte(result.Text()), url)
}

// BuildConfig returns the GenerateContentConfig for extraction calls. The
// response is constrained to JSON so parsing never depends on prose format.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract contact and business details for a single person or " +
					"business from the text of one web page. Report only values present " +
					"in the text; never invent or guess. Leave fields empty when the " +
					"page does not state them.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
}

// BuildUserPrompt builds the user prompt containing the page text and URL.
func BuildUserPrompt(pageText, url string) string {
	var sb strings.Builder
	sb.WriteString("<page>\n")
	fmt.Fprintf(&sb, "<url>%s</url>\n", url)
	fmt.Fprintf(&sb, "<content>%s</content>\n", pageText)
	sb.WriteString("</page>\n\n")
	sb.WriteString("Extract the person or business described by this page.")
	return sb.String()
}

// payload is the JSON shape the model is constrained to.
type payload struct {
	Name                 string            `json:"name"`
	Title                string            `json:"title"`
	BusinessName         string            `json:"businessName"`
	Email                string            `json:"email"`
	Phone                string            `json:"phone"`
	SocialHandles        map[string]string `json:"socialHandles"`
	ServicesOffered      []string          `json:"servicesOffered"`
	StyleVibeDescriptors []string          `json:"styleVibeDescriptors"`
	Location             string            `json:"location"`
	TeamMemberNames      []string          `json:"teamMemberNames"`
	PortfolioLinks       []string          `json:"portfolioLinks"`
	BookingLinks         []string          `json:"bookingLinks"`
	Testimonials         []string          `json:"testimonials"`
	MissionStatement     string            `json:"missionStatement"`
}

// ParseResponse converts the model's JSON response into an aiFallback-stage
// candidate with per-field provenance pointing at url.
func ParseResponse(data []byte, url string) (*leadcrawl.LeadCandidate, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINTERNAL, "parsing gemini response: %v", err)
	}

	cand := &leadcrawl.LeadCandidate{
		Name:                 strings.TrimSpace(p.Name),
		Title:                strings.TrimSpace(p.Title),
		BusinessName:         strings.TrimSpace(p.BusinessName),
		Email:                strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:                strings.TrimSpace(p.Phone),
		SocialHandles:        p.SocialHandles,
		ServicesOffered:      p.ServicesOffered,
		StyleVibeDescriptors: p.StyleVibeDescriptors,
		Location:             strings.TrimSpace(p.Location),
		TeamMemberNames:      p.TeamMemberNames,
		PortfolioLinks:       p.PortfolioLinks,
		BookingLinks:         p.BookingLinks,
		Testimonials:         p.Testimonials,
		MissionStatement:     strings.TrimSpace(p.MissionStatement),
		PageURL:              url,
		Stage:                leadcrawl.StageAIFallback,
		SourceURLs:           make(map[leadcrawl.FieldName][]string),
	}

	src := []string{url}
	setSource := func(field leadcrawl.FieldName, populated bool) {
		if populated {
			cand.SourceURLs[field] = src
		}
	}
	setSource(leadcrawl.FieldPersonName, cand.Name != "")
	setSource(leadcrawl.FieldTitle, cand.Title != "")
	setSource(leadcrawl.FieldBusinessName, cand.BusinessName != "")
	setSource(leadcrawl.FieldEmail, cand.Email != "")
	setSource(leadcrawl.FieldPhone, cand.Phone != "")
	setSource(leadcrawl.FieldSocialHandles, len(cand.SocialHandles) > 0)
	setSource(leadcrawl.FieldServices, len(cand.ServicesOffered) > 0)
	setSource(leadcrawl.FieldStyleVibe, len(cand.StyleVibeDescriptors) > 0)
	setSource(leadcrawl.FieldLocation, cand.Location != "")
	setSource(leadcrawl.FieldTeamMembers, len(cand.TeamMemberNames) > 0)
	setSource(leadcrawl.FieldPortfolio, len(cand.PortfolioLinks) > 0)
	setSource(leadcrawl.FieldBooking, len(cand.BookingLinks) > 0)
	setSource(leadcrawl.FieldTestimonials, len(cand.Testimonials) > 0)
	setSource(leadcrawl.FieldMission, cand.MissionStatement != "")

	return cand, nil
}

func responseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	strList := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: str()}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":                 str(),
			"title":                str(),
			"businessName":         str(),
			"email":                str(),
			"phone":                str(),
			"socialHandles":        {Type: genai.TypeObject},
			"servicesOffered":      strList(),
			"styleVibeDescriptors": strList(),
			"location":             str(),
			"teamMemberNames":      strList(),
			"portfolioLinks":       strList(),
			"bookingLinks":         strList(),
			"testimonials":         strList(),
			"missionStatement":     str(),
		},
	}
}
