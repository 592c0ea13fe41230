// Package crawl walks a domain hierarchy and its in-page links to locate
// the most likely Terms Of Service document, streaming fetched pages to the
// decision layer one at a time.
package crawl

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexjc/weboptout/internal/discover"
	"github.com/alexjc/weboptout/internal/domain"
	"github.com/alexjc/weboptout/internal/ports"
)

// Signal is the consumer's reply to a streamed page.
type Signal int

const (
	// SignalNext advances to the next candidate link.
	SignalNext Signal = iota
	// SignalRetry asks the controller to re-fetch the same URL through the
	// browser-rendering fallback before advancing.
	SignalRetry
	// SignalStop ends the crawl; the consumer has reached a verdict.
	SignalStop
)

// Page is one fetched document handed to the consumer. The consumer must
// call Respond exactly once per page; the controller blocks until it does.
type Page struct {
	URL   string
	HTML  string
	reply chan Signal
}

// Respond hands the consumer's decision back to the controller.
func (p Page) Respond(sig Signal) {
	p.reply <- sig
}

// NewPage builds a page for an alternative producer and returns the channel
// its Respond call delivers on.
func NewPage(url, html string) (Page, <-chan Signal) {
	reply := make(chan Signal, 1)
	return Page{URL: url, HTML: html, reply: reply}, reply
}

// DefaultAttemptBudget caps how many candidate links are fetched within one
// domain crawl.
const DefaultAttemptBudget = 4

// Controller drives the two-phase crawl: domain-suffix resolution, then a
// bounded breadth-first walk over candidate ToS links.
type Controller struct {
	fetcher  ports.Fetcher
	renderer ports.Renderer
	budget   int
	logger   *slog.Logger
}

// New wires the controller. A nil renderer degrades retry requests to empty
// content instead of rendering.
func New(fetcher ports.Fetcher, renderer ports.Renderer, budget int, logger *slog.Logger) *Controller {
	if budget <= 0 {
		budget = DefaultAttemptBudget
	}
	return &Controller{fetcher: fetcher, renderer: renderer, budget: budget, logger: logger}
}

// Stream crawls host and emits pages on the returned channel. The channel
// closes when the crawl ends: either the consumer replied SignalStop, the
// candidates were exhausted, or no suffix of the domain produced content at
// all (the caller reads zero pages in that case). Exactly one page is in
// flight at any time, so the decision trail is reproducible.
func (c *Controller) Stream(ctx context.Context, host string, trail *domain.Trail) <-chan Page {
	pages := make(chan Page)
	go func() {
		defer close(pages)
		c.run(ctx, host, trail, pages)
	}()
	return pages
}

func (c *Controller) run(ctx context.Context, host string, trail *domain.Trail, pages chan<- Page) {
	send := func(url, html string) (Signal, bool) {
		p := Page{URL: url, HTML: html, reply: make(chan Signal, 1)}
		select {
		case <-ctx.Done():
			return SignalStop, false
		case pages <- p:
		}
		select {
		case <-ctx.Done():
			return SignalStop, false
		case sig := <-p.reply:
			return sig, true
		}
	}

	// Phase 1: walk domain suffixes until one serves content. Single-label
	// hosts are never fetched, so the walk terminates within the label count.
	var baseURL string
	var queue []string
	for strings.Count(host, ".") > 0 {
		res := c.fetch(ctx, "https://"+host, trail)
		if res != nil && res.Body != "" {
			baseURL = res.FinalURL
			queue = discover.Links(baseURL, res.Body, trail)
			break
		}

		host = host[strings.Index(host, ".")+1:]
		if strings.Count(host, ".") == 0 {
			// Every suffix failed; the consumer sees an empty stream.
			return
		}
		c.debug("falling back to parent domain", "host", host)
		trail.Log(domain.StatusFailure, domain.StepResolveDomain, domain.Context{
			"fallback": host,
		})
	}
	if baseURL == "" {
		return
	}
	if len(queue) == 0 {
		// Server reachable but nothing ToS-like found.
		send(baseURL, "")
		return
	}

	// Phase 2: breadth-first walk over candidate links, bounded by the
	// attempt budget.
	visited := make(map[string]struct{})
	queued := make(map[string]struct{}, len(queue))
	for _, u := range queue {
		queued[u] = struct{}{}
	}

	for len(queue) > 0 && len(visited) < c.budget {
		target := queue[0]
		queue = queue[1:]
		if _, seen := visited[target]; seen {
			continue
		}
		visited[target] = struct{}{}

		res := c.fetch(ctx, target, trail)
		if res == nil || res.Body == "" {
			c.debug("candidate yielded no content", "url", target)
			continue
		}

		pageURL := res.FinalURL
		html := res.Body
		trail.Log(domain.StatusSuccess, domain.StepRetrievePage, domain.Context{
			"url":   pageURL,
			"bytes": len(html),
		})

		sig, ok := send(pageURL, html)
		if !ok || sig == SignalStop {
			return
		}

		if sig == SignalRetry {
			html = c.render(ctx, target, res.Header, trail)
			sig, ok = send(target, html)
			if !ok || sig == SignalStop {
				return
			}
		}

		for _, link := range discover.Links(target, html, trail) {
			if _, seen := visited[link]; seen {
				continue
			}
			if _, already := queued[link]; already {
				continue
			}
			queued[link] = struct{}{}
			queue = append(queue, link)
		}
	}
}

// fetch retrieves one URL, recording the attempt. It returns nil on
// transport failure and a result with an empty body on content failure.
func (c *Controller) fetch(ctx context.Context, url string, trail *domain.Trail) *ports.FetchResult {
	res, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		trail.Log(domain.StatusFailure, domain.StepEstablishConnection, domain.Context{
			"url":   url,
			"error": err.Error(),
		})
		return nil
	}

	if res.Note != "" {
		trail.Log(domain.StatusFailure, domain.StepValidateContentFormat, domain.Context{
			"url":  url,
			"note": res.Note,
		})
		return res
	}

	ctxMap := domain.Context{
		"url":   res.FinalURL,
		"code":  res.StatusCode,
		"bytes": len(res.Body),
	}
	if res.Cached {
		ctxMap["cached"] = true
	}
	if res.StatusCode != 0 && res.StatusCode != http.StatusOK {
		// Proceed with whatever the server returned.
		trail.Log(domain.StatusFailure, domain.StepCheckErrorCode, ctxMap)
		return res
	}
	trail.Log(domain.StatusSuccess, domain.StepRetrieveContent, ctxMap)
	return res
}

// render re-fetches url through the browser fallback, degrading to empty
// content when rendering is disabled or times out.
func (c *Controller) render(ctx context.Context, url string, header http.Header, trail *domain.Trail) string {
	if c.renderer == nil {
		trail.Log(domain.StatusFailure, domain.StepRetrievePage, domain.Context{
			"url":  url,
			"note": "rendering fallback disabled",
		})
		return ""
	}

	res, err := c.renderer.Render(ctx, url, header)
	if err != nil {
		trail.Log(domain.StatusFailure, domain.StepRetrievePage, domain.Context{
			"url":   url,
			"error": err.Error(),
		})
		return ""
	}

	trail.Log(domain.StatusSuccess, domain.StepRetrievePage, domain.Context{
		"url":      url,
		"bytes":    len(res.Body),
		"rendered": true,
	})
	return res.Body
}

func (c *Controller) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
