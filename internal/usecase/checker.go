// Package usecase ties the crawl stream and the classifier into a single
// reservation verdict per domain.
package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alexjc/weboptout/internal/classify"
	"github.com/alexjc/weboptout/internal/crawl"
	"github.com/alexjc/weboptout/internal/domain"
	"github.com/alexjc/weboptout/internal/ports"
)

// PageStreamer produces the sequential page stream for one domain crawl.
type PageStreamer interface {
	Stream(ctx context.Context, host string, trail *domain.Trail) <-chan crawl.Page
}

// CheckerDeps wires the decision layer's collaborators. Store is optional;
// when present it short-circuits checks and persists finished verdicts.
type CheckerDeps struct {
	Stream     PageStreamer
	Classifier *classify.Classifier
	Store      ports.ReservationStore
	Logger     *slog.Logger
}

// Checker exposes the top-level check operations. It never returns errors
// for ordinary network or content conditions; the Reservation kind carries
// the outcome.
type Checker struct {
	stream     PageStreamer
	classifier *classify.Classifier
	store      ports.ReservationStore
	logger     *slog.Logger
}

// NewChecker constructs the decision layer.
func NewChecker(deps CheckerDeps) *Checker {
	return &Checker{
		stream:     deps.Stream,
		classifier: deps.Classifier,
		store:      deps.Store,
		logger:     deps.Logger,
	}
}

// CheckDomain determines whether host's published Terms Of Service reserve
// the right to exclude automated data collection. host must not carry a URL
// scheme; use CheckURL for full URLs.
func (c *Checker) CheckDomain(ctx context.Context, host string) domain.Reservation {
	trail := &domain.Trail{}

	if strings.Contains(host, "://") {
		trail.Log(domain.StatusFailure, domain.StepResolveDomain, domain.Context{
			"domain": host,
			"error":  "domain must not include a URL scheme",
		})
		return domain.Err.With("", trail, nil)
	}

	if c.store != nil {
		if res, ok, err := c.store.Lookup(ctx, host); err == nil && ok {
			c.debug("reservation served from database", "domain", host, "kind", res.Kind.String())
			return res
		}
	}

	res := c.decide(ctx, host, trail)

	if c.store != nil {
		// The check may have been cancelled; the verdict still gets stored.
		if err := c.store.Save(context.WithoutCancel(ctx), host, res); err != nil {
			c.debug("saving reservation failed", "domain", host, "error", err)
		}
	}
	return res
}

// CheckURL strips raw down to its host component and checks that domain.
func (c *Checker) CheckURL(ctx context.Context, raw string) domain.Reservation {
	target := raw
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Hostname() == "" {
		trail := &domain.Trail{}
		trail.Log(domain.StatusFailure, domain.StepResolveDomain, domain.Context{
			"url":   raw,
			"error": "cannot extract a host from the URL",
		})
		return domain.Err.With("", trail, nil)
	}
	return c.CheckDomain(ctx, parsed.Hostname())
}

// decide consumes the page stream and dispatches on the classifier's
// verdict per document: RETRY escalates to the rendering fallback, ABORT
// finalizes as MAYBE, FAILURE advances to the next candidate, and the first
// SUCCESS wins as YES. An exhausted stream with no verdict is an ERROR.
func (c *Checker) decide(ctx context.Context, host string, trail *domain.Trail) domain.Reservation {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages := c.stream.Stream(ctx, host, trail)

	var final *domain.Reservation
	for page := range pages {
		if final != nil {
			// Late page after a verdict; tell the producer to wind down.
			page.Respond(crawl.SignalStop)
			continue
		}

		if page.HTML == "" {
			page.Respond(crawl.SignalStop)
			maybe := domain.Maybe.With(page.URL, nil, nil)
			final = &maybe
			continue
		}

		status, matches := c.classifier.Check(page.URL, page.HTML, trail)
		switch status {
		case domain.StatusRetry:
			page.Respond(crawl.SignalRetry)
		case domain.StatusAbort:
			page.Respond(crawl.SignalStop)
			maybe := domain.Maybe.With(page.URL, nil, nil)
			final = &maybe
		case domain.StatusFailure:
			page.Respond(crawl.SignalNext)
		case domain.StatusSuccess:
			page.Respond(crawl.SignalStop)
			yes := domain.Yes.With(page.URL, nil, matches)
			final = &yes
		}
	}

	if final == nil {
		// Every avenue exhausted, nothing classifiable found.
		return domain.Err.With("", trail, nil)
	}

	// Attach the full trail only now: the producer has finished, so the
	// record list is complete and stable.
	final.Process = trail.Records()
	c.debug("domain check finished", "domain", host, "kind", final.Kind.String(), "url", final.URL)
	return *final
}

func (c *Checker) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
