// Package render implements the browser-rendering fallback used when a
// static fetch returns too little content to classify.
package render

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexjc/weboptout/internal/ports"
)

// RenderedUserAgent marks results produced by the browser, both for
// diagnostics and for the cache staleness check.
const RenderedUserAgent = "WebOptOut/Headless"

// Options bound a single rendering call.
type Options struct {
	// Timeout is the hard deadline for the whole call.
	Timeout time.Duration
	// PollInterval and MaxPolls bound the document-ready-state loop.
	PollInterval time.Duration
	MaxPolls     int
	// SettleDelay is waited after the ready state reports complete, giving
	// late scripts a chance to fill the page in.
	SettleDelay time.Duration
}

// DefaultOptions returns the production polling bounds.
func DefaultOptions() Options {
	return Options{
		Timeout:      30 * time.Second,
		PollInterval: 10 * time.Millisecond,
		MaxPolls:     1000,
		SettleDelay:  time.Second,
	}
}

// Fallback renders pages through a shared browser. Only one page may render
// at a time process-wide: a single engine instance is reused across all
// callers, guarded by a capacity-1 admission gate. Acquiring the gate may
// block indefinitely behind other callers.
type Fallback struct {
	browser ports.Browser
	opts    Options
	gate    chan struct{}
	pages   ports.PageCache
	logger  *slog.Logger
}

var _ ports.Renderer = (*Fallback)(nil)

// NewFallback wires the fallback around a browser. pages may be nil; when
// set, rendered results are stored so later checks skip the browser.
func NewFallback(browser ports.Browser, opts Options, pages ports.PageCache, logger *slog.Logger) *Fallback {
	if opts.MaxPolls <= 0 {
		opts = DefaultOptions()
	}
	return &Fallback{
		browser: browser,
		opts:    opts,
		gate:    make(chan struct{}, 1),
		pages:   pages,
		logger:  logger,
	}
}

// Render loads url in a fresh tab and returns the rendered markup. A
// navigation timeout degrades to an empty body; any other failure
// propagates, since it signals a broken rendering engine rather than a slow
// site. The gate is released and the tab closed on every path.
func (f *Fallback) Render(ctx context.Context, url string, header http.Header) (*ports.FetchResult, error) {
	if f.pages != nil {
		if hit, ok := f.pages.Get(url); ok && hit.Header.Get("User-Agent") == RenderedUserAgent {
			out := *hit
			out.Cached = true
			return &out, nil
		}
	}

	select {
	case f.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-f.gate }()

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	result := &ports.FetchResult{
		FinalURL: url,
		Header:   mergeHeader(header),
	}

	tab, err := f.browser.Open(ctx, url)
	if err != nil {
		if timedOut(err) {
			f.debug("navigation timed out", "url", url)
			f.store(url, result)
			return result, nil
		}
		return nil, err
	}
	defer tab.Close()

	if err := f.awaitReady(ctx, tab); err != nil {
		if timedOut(err) {
			f.store(url, result)
			return result, nil
		}
		return nil, err
	}

	html, err := tab.HTML(ctx)
	if err != nil {
		if timedOut(err) {
			f.store(url, result)
			return result, nil
		}
		return nil, err
	}

	result.Body = html
	f.store(url, result)
	return result, nil
}

// awaitReady polls the document ready state, then waits the settle delay.
func (f *Fallback) awaitReady(ctx context.Context, tab ports.Tab) error {
	for i := 0; i < f.opts.MaxPolls; i++ {
		loading, err := tab.Loading(ctx)
		if err != nil {
			return err
		}
		if !loading {
			break
		}
		if err := sleep(ctx, f.opts.PollInterval); err != nil {
			return err
		}
	}
	return sleep(ctx, f.opts.SettleDelay)
}

func (f *Fallback) store(url string, res *ports.FetchResult) {
	if f.pages != nil {
		f.pages.Put(url, res)
	}
}

func (f *Fallback) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func mergeHeader(header http.Header) http.Header {
	merged := header.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	merged.Set("User-Agent", RenderedUserAgent)
	return merged
}

func timedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
