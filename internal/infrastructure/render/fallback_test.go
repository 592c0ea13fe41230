package render

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alexjc/weboptout/internal/ports"
)

type fakeTab struct {
	loadingLeft int
	html        string
	closed      bool
}

func (t *fakeTab) Loading(context.Context) (bool, error) {
	if t.loadingLeft > 0 {
		t.loadingLeft--
		return true, nil
	}
	return false, nil
}

func (t *fakeTab) HTML(context.Context) (string, error) { return t.html, nil }

func (t *fakeTab) Close() error {
	t.closed = true
	return nil
}

type fakeBrowser struct {
	tab     *fakeTab
	openErr error
	opens   int
}

func (b *fakeBrowser) Open(context.Context, string) (ports.Tab, error) {
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.tab, nil
}

type memCache struct {
	entries map[string]*ports.FetchResult
}

func newMemCache() *memCache { return &memCache{entries: map[string]*ports.FetchResult{}} }

func (c *memCache) Get(url string) (*ports.FetchResult, bool) {
	res, ok := c.entries[url]
	return res, ok
}

func (c *memCache) Put(url string, res *ports.FetchResult) { c.entries[url] = res }

func fastOptions() Options {
	return Options{
		Timeout:      time.Second,
		PollInterval: time.Millisecond,
		MaxPolls:     5,
		SettleDelay:  time.Millisecond,
	}
}

func TestRenderReturnsMarkup(t *testing.T) {
	t.Parallel()

	tab := &fakeTab{loadingLeft: 2, html: "<p>rendered</p>"}
	browser := &fakeBrowser{tab: tab}
	cache := newMemCache()
	fallback := NewFallback(browser, fastOptions(), cache, nil)

	header := http.Header{}
	header.Set("Accept-Language", "en")
	res, err := fallback.Render(context.Background(), "https://example.com/terms", header)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Body != "<p>rendered</p>" {
		t.Fatalf("unexpected body %q", res.Body)
	}
	if !tab.closed {
		t.Fatal("tab must be closed after rendering")
	}

	if res.Header.Get("User-Agent") != RenderedUserAgent {
		t.Fatalf("rendered results must carry the browser user agent, got %q",
			res.Header.Get("User-Agent"))
	}
	if res.Header.Get("Accept-Language") != "en" {
		t.Fatal("original headers must survive the merge")
	}

	stored, ok := cache.Get("https://example.com/terms")
	if !ok || stored.Body != "<p>rendered</p>" {
		t.Fatalf("rendered result was not cached: %v %v", stored, ok)
	}
}

func TestRenderServesCachedResults(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	cache.Put("https://example.com/terms", &ports.FetchResult{
		FinalURL: "https://example.com/terms",
		Header:   http.Header{"User-Agent": {RenderedUserAgent}},
		Body:     "cached markup",
	})
	browser := &fakeBrowser{tab: &fakeTab{}}
	fallback := NewFallback(browser, fastOptions(), cache, nil)

	res, err := fallback.Render(context.Background(), "https://example.com/terms", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Body != "cached markup" || !res.Cached {
		t.Fatalf("expected the cached result, got %+v", res)
	}
	if browser.opens != 0 {
		t.Fatalf("browser must stay cold on a cache hit, got %d opens", browser.opens)
	}
}

func TestRenderIgnoresStaticCacheEntries(t *testing.T) {
	t.Parallel()

	// An entry from the plain HTTP fetcher is exactly what rendering is
	// meant to improve on; it must not short-circuit the browser.
	cache := newMemCache()
	cache.Put("https://example.com/terms", &ports.FetchResult{
		Header: http.Header{"User-Agent": {"WebOptOut/0.9"}},
		Body:   "static markup",
	})
	browser := &fakeBrowser{tab: &fakeTab{html: "<p>rendered</p>"}}
	fallback := NewFallback(browser, fastOptions(), cache, nil)

	res, err := fallback.Render(context.Background(), "https://example.com/terms", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Body != "<p>rendered</p>" || browser.opens != 1 {
		t.Fatalf("expected a fresh render, got %+v after %d opens", res, browser.opens)
	}
}

func TestRenderTimeoutDegradesToEmptyBody(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	browser := &fakeBrowser{openErr: context.DeadlineExceeded}
	fallback := NewFallback(browser, fastOptions(), cache, nil)

	res, err := fallback.Render(context.Background(), "https://slow.example", nil)
	if err != nil {
		t.Fatalf("a timeout must not be an error: %v", err)
	}
	if res.Body != "" {
		t.Fatalf("expected an empty body, got %q", res.Body)
	}
	if _, ok := cache.Get("https://slow.example"); !ok {
		t.Fatal("the empty result must be cached so the site is not rendered again")
	}
}

func TestRenderPropagatesEngineFailures(t *testing.T) {
	t.Parallel()

	browser := &fakeBrowser{openErr: errors.New("browser crashed")}
	fallback := NewFallback(browser, fastOptions(), nil, nil)

	if _, err := fallback.Render(context.Background(), "https://example.com", nil); err == nil {
		t.Fatal("engine failures must propagate")
	}
}

type blockingBrowser struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBrowser) Open(ctx context.Context, _ string) (ports.Tab, error) {
	close(b.entered)
	select {
	case <-b.release:
		return &fakeTab{html: "<p>late</p>"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRenderAdmitsOneCallerAtATime(t *testing.T) {
	t.Parallel()

	browser := &blockingBrowser{entered: make(chan struct{}), release: make(chan struct{})}
	fallback := NewFallback(browser, fastOptions(), nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := fallback.Render(context.Background(), "https://one.example", nil)
		done <- err
	}()
	<-browser.entered

	// The gate is held by the first caller; a cancelled second caller must
	// give up while queueing instead of rendering.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fallback.Render(cancelled, "https://two.example", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled while queued, got %v", err)
	}

	close(browser.release)
	if err := <-done; err != nil {
		t.Fatalf("first render failed: %v", err)
	}
}
