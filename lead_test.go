package leadcrawl_test

import (
	"testing"

	"github.com/fwojciec/leadcrawl"
	"github.com/stretchr/testify/assert"
)

func TestLeadCandidate_Validate(t *testing.T) {
	t.Parallel()

	t.Run("requires page URL", func(t *testing.T) {
		t.Parallel()

		c := &leadcrawl.LeadCandidate{Stage: leadcrawl.StageProfile}
		err := c.Validate()
		assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(err))
	})

	t.Run("requires known stage", func(t *testing.T) {
		t.Parallel()

		c := &leadcrawl.LeadCandidate{PageURL: "https://example.com/jane", Stage: "bogus"}
		err := c.Validate()
		assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(err))
	})

	t.Run("accepts minimal candidate", func(t *testing.T) {
		t.Parallel()

		c := &leadcrawl.LeadCandidate{PageURL: "https://example.com/jane", Stage: leadcrawl.StageProfile}
		assert.NoError(t, c.Validate())
	})
}

func TestLeadCandidate_HasContactChannel(t *testing.T) {
	t.Parallel()

	assert.False(t, (&leadcrawl.LeadCandidate{}).HasContactChannel())
	assert.True(t, (&leadcrawl.LeadCandidate{Email: "jane@example.com"}).HasContactChannel())
	assert.True(t, (&leadcrawl.LeadCandidate{Phone: "+1 555 0100"}).HasContactChannel())
	assert.True(t, (&leadcrawl.LeadCandidate{
		SocialHandles: map[string]string{"instagram": "@jane"},
	}).HasContactChannel())
	assert.False(t, (&leadcrawl.LeadCandidate{
		SocialHandles: map[string]string{"instagram": ""},
	}).HasContactChannel())
}

func TestLead_Flags(t *testing.T) {
	t.Parallel()

	l := &leadcrawl.Lead{}
	assert.False(t, l.HasFlag(leadcrawl.FlagLowConfidence))

	l.AddFlag(leadcrawl.FlagLowConfidence)
	l.AddFlag(leadcrawl.FlagLowConfidence)

	assert.Equal(t, []leadcrawl.Flag{leadcrawl.FlagLowConfidence}, l.Flags)
}

func TestLead_IsThreeSourceValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lead leadcrawl.Lead
		want bool
	}{
		{"empty", leadcrawl.Lead{}, false},
		{"email only", leadcrawl.Lead{Email: "a@b.co"}, false},
		{"email and phone", leadcrawl.Lead{Email: "a@b.co", Phone: "5550100"}, true},
		{"email and social", leadcrawl.Lead{
			Email:         "a@b.co",
			SocialHandles: map[string]string{"instagram": "@a"},
		}, true},
		{"empty social does not count", leadcrawl.Lead{
			Email:         "a@b.co",
			SocialHandles: map[string]string{"instagram": ""},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.lead.IsThreeSourceValid())
		})
	}
}

func TestCampaignConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("requires name", func(t *testing.T) {
		t.Parallel()

		cfg := &leadcrawl.CampaignConfig{}
		assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(cfg.Validate()))
	})

	t.Run("rejects unknown selector kind", func(t *testing.T) {
		t.Parallel()

		cfg := &leadcrawl.CampaignConfig{
			Name:              "test",
			ListLinkSelectors: []leadcrawl.Selector{{Kind: "jquery", Expr: ".card a"}},
		}
		assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(cfg.Validate()))
	})

	t.Run("rejects empty selector expression", func(t *testing.T) {
		t.Parallel()

		cfg := &leadcrawl.CampaignConfig{
			Name: "test",
			ProfileFieldSelectors: map[leadcrawl.FieldName][]leadcrawl.Selector{
				leadcrawl.FieldEmail: {{Kind: leadcrawl.SelectorCSS}},
			},
		}
		assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(cfg.Validate()))
	})

	t.Run("accepts complete config", func(t *testing.T) {
		t.Parallel()

		cfg := &leadcrawl.CampaignConfig{
			Name:                "photographers",
			ListLinkSelectors:   []leadcrawl.Selector{{Kind: leadcrawl.SelectorCSS, Expr: ".roster a"}},
			PaginationSelectors: []leadcrawl.Selector{{Kind: leadcrawl.SelectorCSS, Expr: "a[rel=next]"}},
			ProfileFieldSelectors: map[leadcrawl.FieldName][]leadcrawl.Selector{
				leadcrawl.FieldPersonName: {{Kind: leadcrawl.SelectorCSS, Expr: "h1"}},
				leadcrawl.FieldEmail:      {{Kind: leadcrawl.SelectorCSS, Expr: "a[href^=mailto]"}},
			},
		}
		assert.NoError(t, cfg.Validate())
	})
}
