package rod

import (
	"sync"

	"github.com/fwojciec/leadcrawl"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the number of rendered pages before browser recycling.
// Chrome accumulates memory under load and the baseline never returns to
// initial levels even with proper page cleanup, so the browser is restarted
// periodically.
const DefaultMaxPages = 75

// BrowserManager owns the headless Chrome lifecycle, recycling the browser
// after a fixed number of rendered pages. It is safe for concurrent use.
type BrowserManager struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	pageCount int64
	maxPages  int64
	closed    bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages are rendered before the browser is
// recycled. Defaults to DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}

	browser, lnchr, err := launchBrowser()
	if err != nil {
		return nil, err
	}
	bm.browser = browser
	bm.launcher = lnchr
	return bm, nil
}

// Browser returns the current browser instance, recycling first if the page
// count has reached the threshold.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.pageCount >= bm.maxPages {
		bm.recycle()
	}
	return bm.browser
}

// notePage advances the recycling counter by one rendered page.
func (bm *BrowserManager) notePage() {
	bm.mu.Lock()
	bm.pageCount++
	bm.mu.Unlock()
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycle swaps in a fresh browser, keeping the old one if the new launch
// fails. Must be called with mu held.
func (bm *BrowserManager) recycle() {
	browser, lnchr, err := launchBrowser()
	if err != nil {
		return
	}

	if bm.browser != nil {
		_ = bm.browser.Close()
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
	}

	bm.browser = browser
	bm.launcher = lnchr
	bm.pageCount = 0
}

// launchBrowser starts a new browser instance with stability flags.
func launchBrowser() (*rod.Browser, *launcher.Launcher, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, nil, leadcrawl.Errorf(leadcrawl.EUNAVAILABLE, "connecting to browser: %v", err)
	}

	return browser, lnchr, nil
}
