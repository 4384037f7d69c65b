package crawl

import (
	"container/heap"
	"strings"
	"sync"

	"github.com/fwojciec/leadcrawl/bloom"
)

// Entry priorities. Profile pages are fetched before pagination so the stop
// rule can observe "only pagination left" states.
const (
	PriorityPagination = 1
	PriorityListing    = 2
	PriorityProfile    = 3
)

// FrontierEntry is one URL queued for fetching within a single domain.
type FrontierEntry struct {
	URL      string
	Depth    int
	Priority int

	// seq preserves FIFO order among entries of equal priority.
	seq int
}

// Frontier is a per-domain URL queue with priority ordering and exact
// deduplication behind a Bloom filter prefilter. The filter answers the
// common "never seen" case without a map lookup; a positive answer is
// confirmed against the exact visited set so a false positive never drops a
// URL. The Frontier is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu      sync.Mutex
	seen    *bloom.Filter
	visited map[string]struct{}
	queue   *entryHeap
	seq     int
}

// NewFrontier creates a Frontier sized for n expected URLs with the given
// false positive rate for the deduplication prefilter.
func NewFrontier(n uint, fpRate float64) *Frontier {
	h := &entryHeap{}
	heap.Init(h)
	return &Frontier{
		seen:    bloom.NewFilter(n, fpRate),
		visited: make(map[string]struct{}),
		queue:   h,
	}
}

// Push adds an entry to the frontier.
// Returns false if the URL has already been seen.
// URL fragments are stripped before deduplication - URLs differing only by
// fragment are considered duplicates.
func (f *Frontier) Push(entry FrontierEntry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	url := entry.URL
	if idx := strings.Index(url, "#"); idx != -1 {
		url = url[:idx]
	}

	if f.seen.Test(url) {
		if _, ok := f.visited[url]; ok {
			return false
		}
	}
	f.seen.Add(url)
	f.visited[url] = struct{}{}

	entry.URL = url
	entry.seq = f.seq
	f.seq++
	heap.Push(f.queue, entry)
	return true
}

// Pop returns the next entry by priority.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return FrontierEntry{}, false
	}
	entry, _ := heap.Pop(f.queue).(FrontierEntry)
	return entry, true
}

// Len returns the number of entries in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Seen returns true if the URL has been processed or queued.
// URL fragments are stripped before checking.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	url := rawURL
	if idx := strings.Index(url, "#"); idx != -1 {
		url = url[:idx]
	}
	if !f.seen.Test(url) {
		return false
	}
	_, ok := f.visited[url]
	return ok
}

// OnlyPagination reports whether every queued entry is a pagination entry.
// An empty frontier reports true. The stop rule uses this to decide whether
// remaining work for a domain is worth fetching.
func (f *Frontier) OnlyPagination() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range *f.queue {
		if entry.Priority > PriorityPagination {
			return false
		}
	}
	return true
}

// Drain discards all queued entries and returns how many were dropped.
func (f *Frontier) Drain() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.queue.Len()
	*f.queue = (*f.queue)[:0]
	return n
}

// entryHeap implements heap.Interface for FrontierEntry.
// Higher priority entries are popped first; equal priorities pop FIFO.
type entryHeap []FrontierEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	entry, _ := x.(FrontierEntry)
	*h = append(*h, entry)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
