package htmltomarkdown_test

import (
	"testing"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ leadcrawl.Converter = (*htmltomarkdown.Converter)(nil)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts headings and links", func(t *testing.T) {
		t.Parallel()

		html := `<h1>Jane Doe</h1>
<p>Booking: <a href="mailto:jane@studio.example">jane@studio.example</a></p>`

		c := htmltomarkdown.NewConverter()
		md, err := c.Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "# Jane Doe")
		assert.Contains(t, md, "jane@studio.example")
	})

	t.Run("converts lists", func(t *testing.T) {
		t.Parallel()

		html := `<ul><li>Fine Line</li><li>Blackwork</li></ul>`

		c := htmltomarkdown.NewConverter()
		md, err := c.Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "- Fine Line")
		assert.Contains(t, md, "- Blackwork")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		c := htmltomarkdown.NewConverter()
		_, err := c.Convert("   ")
		require.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(err))
	})
}
