package crawl_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/leadcrawl/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_PushPop(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(100, 0.01)

	require.True(t, f.Push(crawl.FrontierEntry{URL: "https://x.example/a", Priority: crawl.PriorityListing}))
	require.True(t, f.Push(crawl.FrontierEntry{URL: "https://x.example/b", Priority: crawl.PriorityProfile}))
	require.True(t, f.Push(crawl.FrontierEntry{URL: "https://x.example/c", Priority: crawl.PriorityPagination}))

	// Highest priority first.
	entry, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://x.example/b", entry.URL)

	entry, ok = f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://x.example/a", entry.URL)

	entry, ok = f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://x.example/c", entry.URL)

	_, ok = f.Pop()
	assert.False(t, ok)
}

func TestFrontier_EqualPriorityIsFIFO(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(100, 0.01)
	for i := 0; i < 5; i++ {
		f.Push(crawl.FrontierEntry{
			URL:      fmt.Sprintf("https://x.example/%d", i),
			Priority: crawl.PriorityProfile,
		})
	}
	for i := 0; i < 5; i++ {
		entry, ok := f.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("https://x.example/%d", i), entry.URL)
	}
}

func TestFrontier_Deduplicates(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(100, 0.01)

	require.True(t, f.Push(crawl.FrontierEntry{URL: "https://x.example/a"}))
	assert.False(t, f.Push(crawl.FrontierEntry{URL: "https://x.example/a"}))
	assert.False(t, f.Push(crawl.FrontierEntry{URL: "https://x.example/a#section"}), "fragments do not make a URL new")
	assert.Equal(t, 1, f.Len())
	assert.True(t, f.Seen("https://x.example/a#other"))
}

func TestFrontier_BloomFalsePositiveDoesNotDropURL(t *testing.T) {
	t.Parallel()

	// An undersized filter saturates quickly, so most of these URLs read as
	// positives in the prefilter. The exact visited set must still admit
	// every URL that was never actually pushed.
	f := crawl.NewFrontier(1, 0.01)
	for i := 0; i < 500; i++ {
		url := fmt.Sprintf("https://x.example/artists/%d", i)
		require.True(t, f.Push(crawl.FrontierEntry{URL: url, Priority: crawl.PriorityProfile}), url)
	}
	assert.Equal(t, 500, f.Len())
	assert.False(t, f.Seen("https://x.example/never-pushed"))
}

func TestFrontier_OnlyPagination(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(100, 0.01)
	assert.True(t, f.OnlyPagination(), "empty frontier has only pagination left")

	f.Push(crawl.FrontierEntry{URL: "https://x.example/page2", Priority: crawl.PriorityPagination})
	assert.True(t, f.OnlyPagination())

	f.Push(crawl.FrontierEntry{URL: "https://x.example/jane", Priority: crawl.PriorityProfile})
	assert.False(t, f.OnlyPagination())
}

func TestFrontier_Drain(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(100, 0.01)
	f.Push(crawl.FrontierEntry{URL: "https://x.example/a"})
	f.Push(crawl.FrontierEntry{URL: "https://x.example/b"})

	assert.Equal(t, 2, f.Drain())
	assert.Equal(t, 0, f.Len())
	assert.True(t, f.Seen("https://x.example/a"), "drained URLs stay deduplicated")
}
