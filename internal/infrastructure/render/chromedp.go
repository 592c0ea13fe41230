package render

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/alexjc/weboptout/internal/ports"
)

// Chrome drives a single headless Chrome instance through chromedp. The
// browser process is started once and shared; each Open starts a tab that
// lives for one page load.
type Chrome struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

var _ ports.Browser = (*Chrome)(nil)

// NewChrome launches the shared headless browser.
func NewChrome(ctx context.Context) (*Chrome, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser process up front so failures surface here instead
	// of on the first rendering call.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start headless browser: %w", err)
	}

	return &Chrome{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}, nil
}

// Open navigates a fresh tab to url. The caller's deadline carries over to
// the tab.
func (c *Chrome) Open(ctx context.Context, url string) (ports.Tab, error) {
	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	cancel := cancelTab
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		tabCtx, cancelDeadline = context.WithDeadline(tabCtx, deadline)
		cancel = func() {
			cancelDeadline()
			cancelTab()
		}
	}

	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		cancel()
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	return &chromeTab{ctx: tabCtx, cancel: cancel}, nil
}

// Close tears down the shared browser.
func (c *Chrome) Close() error {
	for _, cancel := range c.cancels {
		cancel()
	}
	return nil
}

type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *chromeTab) Loading(ctx context.Context) (bool, error) {
	var state string
	if err := chromedp.Run(t.ctx, chromedp.Evaluate("document.readyState", &state)); err != nil {
		return false, err
	}
	return state != "complete", nil
}

func (t *chromeTab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(t.ctx, chromedp.Evaluate("document.documentElement.outerHTML", &html)); err != nil {
		return "", err
	}
	return html, nil
}

func (t *chromeTab) Close() error {
	t.cancel()
	return nil
}
