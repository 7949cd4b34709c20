package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// maxHeadingRunes bounds the text of an element treated as a section heading
const maxHeadingRunes = 120

var factsHeading = regexp.MustCompile(`(?i)\b(?:facts?|faits)\b`)

const sectionElements = "p, h1, h2, h3, h4, h5, h6"

func isHeadingTag(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func shortText(s *goquery.Selection) (string, bool) {
	text := normaliseSpace(s.Text())
	return text, text != "" && utf8.RuneCountInString(text) <= maxHeadingRunes
}

// underlinedFacts captures the section opened by an underlined Facts heading
// up to the next underlined element.
func underlinedFacts(p *page) string {
	return captureSection(p,
		func(s *goquery.Selection) bool {
			if !hasDescendant(s, "u") {
				return false
			}
			text, ok := shortText(s)
			return ok && factsHeading.MatchString(text)
		},
		func(s *goquery.Selection) bool { return hasDescendant(s, "u") },
	)
}

// headedFacts captures the section under an h1-h6 or bold-only paragraph
// heading naming the facts, up to the next such heading.
func headedFacts(p *page) string {
	isHeading := func(s *goquery.Selection) bool {
		if isHeadingTag(s) {
			return true
		}
		if _, ok := shortText(s); !ok {
			return false
		}
		return boldOnly(s) || hasDescendant(s, "u")
	}
	return captureSection(p,
		func(s *goquery.Selection) bool {
			text, ok := shortText(s)
			return ok && isHeading(s) && factsHeading.MatchString(text)
		},
		isHeading,
	)
}

func captureSection(p *page, opens, closes func(*goquery.Selection) bool) string {
	var parts []string
	found := false
	p.doc.Find(sectionElements).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !found {
			found = opens(s)
			return true
		}
		if closes(s) {
			return false
		}
		if text := normaliseSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
		return true
	})
	return strings.Join(parts, " ")
}

// extractFacts returns the facts text and the strategy that found it
func extractFacts(p *page) (string, string) {
	for _, s := range []strategy{
		{"underlined heading", underlinedFacts},
		{"section heading", headedFacts},
	} {
		if v := s.find(p); v != "" {
			return v, s.name
		}
	}
	return "", ""
}
