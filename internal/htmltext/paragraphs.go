// Package htmltext extracts the text blocks of an HTML document that are
// most likely to be legal prose, skipping navigation and layout noise.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`\s+`)

// Paragraphs returns the cleaned text of every paragraph-like block in
// document order. Blocks nested in links or header/footer regions, spans
// inside paragraphs, list containers with child elements, and link-only
// fragments are dropped.
func Paragraphs(doc *goquery.Document) []string {
	var out []string

	doc.Find("p, li, ol, ul, span").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("a").Length() > 0 {
			return
		}
		if sel.ParentsFiltered("header, footer").Length() > 0 {
			return
		}

		name := goquery.NodeName(sel)
		if name == "span" && sel.ParentsFiltered("p").Length() > 0 {
			// The paragraph already covers this text.
			return
		}
		if (name == "ol" || name == "ul") && sel.Children().Length() > 0 {
			// Items are counted individually.
			return
		}
		if linkOnly(sel) {
			return
		}

		text := whitespace.ReplaceAllString(flatten(sel), " ")
		text = strings.TrimSpace(text)
		if text != "" {
			out = append(out, text)
		}
	})

	return out
}

// linkOnly reports whether the block's only non-whitespace content is a
// single nested hyperlink, i.e. pure navigation.
func linkOnly(sel *goquery.Selection) bool {
	node := sel.Get(0)
	var kept []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode && strings.Trim(child.Data, " \t\n\r") == "" {
			continue
		}
		kept = append(kept, child)
	}
	return len(kept) == 1 && kept[0].Type == html.ElementNode && kept[0].Data == "a"
}

// flatten joins every descendant text node with single spaces.
func flatten(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return strings.Join(parts, " ")
}
