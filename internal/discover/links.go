// Package discover finds candidate links to a domain's Terms Of Service
// page inside an HTML document, ranked by match strength between the href
// and the visible link text.
package discover

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alexjc/weboptout/internal/domain"
	"github.com/alexjc/weboptout/internal/patterns"
)

type anchor struct {
	href string
	text string
}

// Links returns an ordered, deduplicated list of absolute candidate URLs
// discovered in rawHTML, resolved against baseURL. An empty list means the
// page offers nothing ToS-like to follow (a dead end for static fetching);
// the reason is recorded in the trail.
func Links(baseURL, rawHTML string, trail *domain.Trail) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		trail.Log(domain.StatusFailure, domain.StepParsePage, domain.Context{
			"url":   baseURL,
			"error": err.Error(),
		})
		return nil
	}

	anchors := collectAnchors(doc)
	if len(anchors) == 0 || jsRequired(rawHTML) {
		trail.Log(domain.StatusFailure, domain.StepValidatePageLinks, domain.Context{
			"url":    baseURL,
			"reason": "JavaScript must be enabled to view content",
		})
		return nil
	}

	var hrefMatches, textMatches []anchor
	for _, a := range anchors {
		if patterns.HrefTOS.MatchString(a.href) {
			hrefMatches = append(hrefMatches, a)
		}
		if patterns.TextTOS.MatchString(strings.TrimSpace(a.text)) {
			textMatches = append(textMatches, a)
		}
	}

	// Shorter targets first: more likely the canonical document.
	sort.SliceStable(hrefMatches, func(i, j int) bool { return len(hrefMatches[i].href) < len(hrefMatches[j].href) })
	sort.SliceStable(textMatches, func(i, j int) bool { return len(textMatches[i].text) < len(textMatches[j].text) })

	if len(hrefMatches) == 0 && len(textMatches) == 0 {
		trail.Log(domain.StatusFailure, domain.StepFindSomeLinksToTerms, domain.Context{
			"url":   baseURL,
			"links": len(anchors),
		})
		return nil
	}

	if both := intersect(hrefMatches, textMatches); len(both) > 0 {
		trail.Log(domain.StatusSuccess, domain.StepFindGoodLinksToTerms, domain.Context{
			"obvious":      len(both),
			"href_matches": len(hrefMatches),
			"text_matches": len(textMatches),
		})
		sort.SliceStable(both, func(i, j int) bool { return len(both[i].href) < len(both[j].href) })
		return resolveAll(baseURL, both)
	}

	var filtered []anchor
	for _, a := range interleave(hrefMatches, textMatches) {
		if !nonTOS(a.href) {
			filtered = append(filtered, a)
		}
	}

	trail.Log(domain.StatusSuccess, domain.StepFindSomeLinksToTerms, domain.Context{
		"candidates":   len(filtered),
		"href_matches": len(hrefMatches),
		"text_matches": len(textMatches),
	})
	return resolveAll(baseURL, filtered)
}

func collectAnchors(doc *goquery.Document) []anchor {
	var anchors []anchor
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "javascript:") {
			return
		}
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "?") {
			return
		}
		text := sel.Text()
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "refresh", "reload":
			return
		}
		anchors = append(anchors, anchor{href: href, text: text})
	})
	return anchors
}

func jsRequired(rawHTML string) bool {
	for _, marker := range patterns.JSRequiredMarkers {
		if strings.Contains(rawHTML, marker) {
			return true
		}
	}
	return false
}

// intersect keeps the anchors present in both partitions.
func intersect(hrefs, texts []anchor) []anchor {
	inTexts := make(map[anchor]struct{}, len(texts))
	for _, a := range texts {
		inTexts[a] = struct{}{}
	}
	var both []anchor
	seen := make(map[anchor]struct{})
	for _, a := range hrefs {
		if _, ok := inTexts[a]; !ok {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		both = append(both, a)
	}
	return both
}

// interleave alternates href-pattern matches with text-pattern matches so a
// weak signal of either kind is never starved.
func interleave(hrefs, texts []anchor) []anchor {
	out := make([]anchor, 0, len(hrefs)+len(texts))
	for i := 0; i < len(hrefs) || i < len(texts); i++ {
		if i < len(hrefs) {
			out = append(out, hrefs[i])
		}
		if i < len(texts) {
			out = append(out, texts[i])
		}
	}
	return out
}

func nonTOS(href string) bool {
	lower := strings.ToLower(href)
	for _, marker := range patterns.NonTOSMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// resolveAll turns hrefs into absolute URLs against base, dropping
// duplicates and anything unparsable while preserving order.
func resolveAll(baseURL string, anchors []anchor) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, a := range anchors {
		ref, err := url.Parse(strings.TrimSpace(a.href))
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
