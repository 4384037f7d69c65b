package leadcrawl_test

import (
	"testing"

	"github.com/fwojciec/leadcrawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lower-cases scheme and host",
			in:   "HTTPS://Example.COM/Team",
			want: "https://example.com/Team",
		},
		{
			name: "removes default https port",
			in:   "https://example.com:443/about",
			want: "https://example.com/about",
		},
		{
			name: "removes default http port",
			in:   "http://example.com:80/",
			want: "http://example.com/",
		},
		{
			name: "keeps non-default port",
			in:   "https://example.com:8443/team",
			want: "https://example.com:8443/team",
		},
		{
			name: "strips fragment",
			in:   "https://example.com/team#staff",
			want: "https://example.com/team",
		},
		{
			name: "strips tracking parameters",
			in:   "https://example.com/team?utm_source=x&utm_medium=y&fbclid=z",
			want: "https://example.com/team",
		},
		{
			name: "keeps pagination parameters",
			in:   "https://example.com/team?page=2&utm_campaign=spring",
			want: "https://example.com/team?page=2",
		},
		{
			name: "sorts query parameters",
			in:   "https://example.com/team?z=1&a=2",
			want: "https://example.com/team?a=2&z=1",
		},
		{
			name: "removes trailing slash",
			in:   "https://example.com/team/",
			want: "https://example.com/team",
		},
		{
			name: "keeps root slash",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "adds root slash to bare host",
			in:   "https://example.com",
			want: "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := leadcrawl.CanonicalURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalURL_is_idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"HTTPS://Example.COM:443/Team/?utm_source=x&z=1&a=2#staff",
		"http://example.com",
		"https://example.com/profiles/jane?page=3",
	}

	for _, in := range inputs {
		once, err := leadcrawl.CanonicalURL(in)
		require.NoError(t, err)

		twice, err := leadcrawl.CanonicalURL(once)
		require.NoError(t, err)

		assert.Equal(t, once, twice, "canonicalize(canonicalize(u)) must equal canonicalize(u) for %q", in)
	}
}

func TestCanonicalURL_rejects_malformed_URLs(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "://broken", "mailto:jane@example.com", "/relative/path"} {
		_, err := leadcrawl.CanonicalURL(in)
		assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(err), "input %q", in)
	}
}

func TestCanonicalizer_custom_denylist(t *testing.T) {
	t.Parallel()

	c := leadcrawl.NewCanonicalizer([]string{"session"})

	got, err := c.Canonicalize("https://example.com/team?session=abc&utm_source=x")
	require.NoError(t, err)

	// Only the custom denylist applies; utm_source survives.
	assert.Equal(t, "https://example.com/team?utm_source=x", got)
}

func TestCanonicalizer_Domain(t *testing.T) {
	t.Parallel()

	c := leadcrawl.NewCanonicalizer(nil)

	got, err := c.Domain("https://Example.com:8443/team")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got)
}
