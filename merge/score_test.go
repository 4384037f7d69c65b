package merge_test

import (
	"testing"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/merge"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	t.Parallel()

	w := leadcrawl.DefaultScoreWeights()

	tests := []struct {
		name string
		lead leadcrawl.Lead
		want int
	}{
		{"empty", leadcrawl.Lead{}, 0},
		{"name only", leadcrawl.Lead{Name: "Jane Doe"}, 4},
		{"unvalidated email", leadcrawl.Lead{Email: "jane@x.example"}, 2},
		{"validated email", leadcrawl.Lead{Email: "jane@x.example", EmailValidated: true}, 5},
		{
			"two channels earn the bonus",
			leadcrawl.Lead{Email: "jane@x.example", Phone: "+1 555 0101"},
			2 + 3 + 2,
		},
		{
			"full profile",
			leadcrawl.Lead{
				Name:            "Jane Doe",
				Email:           "jane@x.example",
				EmailValidated:  true,
				Phone:           "+1 555 0101",
				SocialHandles:   map[string]string{"instagram": "janedoe"},
				ServicesOffered: []string{"Fine Line"},
				Location:        "Portland, OR",
				TeamMemberNames: []string{"Maya Lin", "Ana Reyes"},
			},
			4 + 5 + 3 + 2 + 3 + 2 + 2 + 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, merge.Score(&tt.lead, w))
		})
	}
}

func TestScore_CustomWeights(t *testing.T) {
	t.Parallel()

	w := leadcrawl.ScoreWeights{Name: 10}
	lead := leadcrawl.Lead{Name: "Jane Doe", Phone: "+1 555 0101"}
	require.Equal(t, 10, merge.Score(&lead, w))
}
