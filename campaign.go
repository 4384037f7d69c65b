package leadcrawl

// SelectorKind discriminates the closed set of selector variants.
type SelectorKind string

// Selector variants.
const (
	SelectorCSS         SelectorKind = "css"
	SelectorXPath       SelectorKind = "xpath"
	SelectorRegexOnText SelectorKind = "regex"
)

// Selector is a tagged variant over {CSS, XPath, RegexOnText}. It is pure
// data; evaluation against a parsed page lives in the goquery package.
type Selector struct {
	Kind SelectorKind `json:"kind" yaml:"kind"`

	// Expr is a CSS selector, XPath expression, or Go regular expression
	// depending on Kind.
	Expr string `json:"expr" yaml:"expr"`
}

// Validate returns an error if the selector is structurally invalid.
func (s Selector) Validate() error {
	switch s.Kind {
	case SelectorCSS, SelectorXPath, SelectorRegexOnText:
	default:
		return Errorf(EINVALID, "unknown selector kind %q", s.Kind)
	}
	if s.Expr == "" {
		return Errorf(EINVALID, "selector expression required")
	}
	return nil
}

// CampaignConfig is the immutable selector pack for one site vertical.
// It is loaded once per run and shared read-only by all workers.
type CampaignConfig struct {
	Name string `json:"name" yaml:"name"`

	// ListLinkSelectors locate profile links on listing/roster pages,
	// evaluated in order.
	ListLinkSelectors []Selector `json:"listLinkSelectors" yaml:"list_link_selectors"`

	// PaginationSelectors locate the "next page" link on listing pages,
	// evaluated in order. At most one next URL is followed per page.
	PaginationSelectors []Selector `json:"paginationSelectors" yaml:"pagination_selectors"`

	// ProfileFieldSelectors map lead fields to ordered selector lists.
	// The first selector producing at least one match wins per field.
	ProfileFieldSelectors map[FieldName][]Selector `json:"profileFieldSelectors" yaml:"profile_field_selectors"`
}

// Validate returns an error if the campaign config contains invalid fields.
func (c *CampaignConfig) Validate() error {
	if c.Name == "" {
		return Errorf(EINVALID, "campaign name required")
	}
	for _, sel := range c.ListLinkSelectors {
		if err := sel.Validate(); err != nil {
			return err
		}
	}
	for _, sel := range c.PaginationSelectors {
		if err := sel.Validate(); err != nil {
			return err
		}
	}
	for field, sels := range c.ProfileFieldSelectors {
		if field == "" {
			return Errorf(EINVALID, "campaign %q: empty field name", c.Name)
		}
		for _, sel := range sels {
			if err := sel.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// CampaignRegistry provides read access to loaded campaign configs.
type CampaignRegistry interface {
	// Get returns the config for the named campaign.
	// Returns ENOTFOUND if the campaign does not exist.
	Get(name string) (*CampaignConfig, error)

	// List returns all campaign names in lexical order.
	List() []string
}
