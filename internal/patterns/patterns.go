// Package patterns holds the static pattern sets driving link discovery and
// text classification. The ordered lists are priority lists: patterns that
// appear earlier carry higher confidence and are tried first.
package patterns

import "regexp"

// HrefTOS matches the href of links that likely point to a Terms Of Service
// page.
var HrefTOS = regexp.MustCompile(`(?i)(terms|agreement|polic(y|ies)|user|legal|/tou/?$|/tos/?$)`)

// TextTOS matches the visible text of links that likely point to a Terms Of
// Service page.
var TextTOS = regexp.MustCompile(`(?i)(^terms of service|^terms of use|^terms (&|and) condition|^terms$|^legal$|` +
	`use polic(y|ies)$|^user agreement$|^tou$|^tos$|terms(.+)(service|condition)|` +
	`terms|legal|conditions|guidelines)`)

// TDMConcepts are phrases indicating a text/data-mining activity, ordered by
// confidence.
var TDMConcepts = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(scrap(e|er|ing)|data[\s-]min(e|ing))`),
	regexp.MustCompile(`(?i)(spider|robot|crawl(ing|er)?)`),
	regexp.MustCompile(`(?i)(automated|automatic) (software|tool|mean|system|way|device)s?`),
	regexp.MustCompile(`(?i)(image library|machine learning|deep learning|populate a database|unapproved automation)`),
	regexp.MustCompile(`(?i)(extract|compil(e|at)?|collect)(ing|ion)? (data|content|material|information)`),
	regexp.MustCompile(`(?i)harvest(ing|er)?`),
}

// NFPConcepts are phrases indicating non-commercial or personal use only,
// ordered by confidence.
var NFPConcepts = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(non-commercial|non commercial) (use|purpose)`),
	regexp.MustCompile(`(?i)(any )?commercial use [\w\s]+is (strictly )?(prohibited|forbidden)`),
	regexp.MustCompile(`(?i)not\s*(meant|intended)?\s*for commercial (use|usage)`),
	regexp.MustCompile(`(?i)not-for-profit`),
	regexp.MustCompile(`(?i)(personal|private) (use|purpose)`),
}

// legalWords is a bag of words whose frequency signals that a document reads
// like legal text.
var legalWords = regexp.MustCompile(`(?i)(effective|accept|entitle|dispute|providing|unable|reasonable|applicable|` +
	`precludes|enforcement|reserve|terminate|section|constitute|damages|liable|` +
	`obligations|information|processing|consent|privacy|limited|necessary|` +
	`purpose|decide|account|security|request|protection)`)

// CountLegalWords counts legal-vocabulary hits across the whole text.
func CountLegalWords(text string) int {
	return len(legalWords.FindAllStringIndex(text, -1))
}

// NonTOSMarkers flag hrefs that match the ToS vocabulary but almost always
// lead somewhere else.
var NonTOSMarkers = []string{"login", "privacy", "signup", "user/", "users/", "tags/", "categories/"}

// JSRequiredMarkers appear in pages that refuse to serve content without
// script execution.
var JSRequiredMarkers = []string{"turn on javascript", "enable-javascript.com"}
