package httpclient

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/alexjc/weboptout/internal/ports"
)

// StalePredicate judges whether a cached entry must be bypassed and
// refetched.
type StalePredicate func(*ports.FetchResult) bool

// CachingFetcher memoizes fetch results in an LRU and a persistent page
// cache. Transport failures are never cached; content failures (empty
// bodies) are, so repeated checks of a hostile domain stay cheap.
type CachingFetcher struct {
	next  ports.Fetcher
	pages ports.PageCache
	memo  *lru.Cache[string, *ports.FetchResult]
	stale StalePredicate
}

var _ ports.Fetcher = (*CachingFetcher)(nil)

// NewCachingFetcher decorates next. pages may be nil (memory-only); stale
// may be nil (cache entries never expire).
func NewCachingFetcher(next ports.Fetcher, pages ports.PageCache, memoEntries int, stale StalePredicate) (*CachingFetcher, error) {
	if memoEntries <= 0 {
		memoEntries = 256
	}
	memo, err := lru.New[string, *ports.FetchResult](memoEntries)
	if err != nil {
		return nil, err
	}
	return &CachingFetcher{next: next, pages: pages, memo: memo, stale: stale}, nil
}

// Fetch serves from cache when possible, marking served results as cached.
func (c *CachingFetcher) Fetch(ctx context.Context, url string) (*ports.FetchResult, error) {
	if hit, ok := c.memo.Get(url); ok && !c.isStale(hit) {
		return cached(hit), nil
	}
	if c.pages != nil {
		if hit, ok := c.pages.Get(url); ok && !c.isStale(hit) {
			c.memo.Add(url, hit)
			return cached(hit), nil
		}
	}

	res, err := c.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.memo.Add(url, res)
	if c.pages != nil {
		c.pages.Put(url, res)
	}
	return res, nil
}

func (c *CachingFetcher) isStale(res *ports.FetchResult) bool {
	return c.stale != nil && c.stale(res)
}

func cached(res *ports.FetchResult) *ports.FetchResult {
	out := *res
	out.Cached = true
	return &out
}
