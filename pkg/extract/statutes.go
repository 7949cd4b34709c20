package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	statutesHeading = "statutes and regulations cited"
	authorsHeading  = "authors cited"
)

// Citation shape: an act name, then a statute reference and/or a section
// reference, e.g. "Criminal Code, R.S.C. 1985, c. C-46, s. 322".
var citationPattern = func() *regexp.Regexp {
	word := `[A-Z][A-Za-z'’\-]*`
	connector := `of|and|the|on|for|to|in|respecting|concerning|with|de|du|des|la|le|et|sur`
	act := word + `(?:\s+(?:` + word + `|` + connector + `))*`
	ref := `(?:R\.)?S\.(?:[A-Z]{1,3}\.){0,3}\s*\d{4},\s*c\.\s*[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*`
	sec := `\d+(?:\.\d+)*(?:\([0-9a-z.]+\))*`
	secRef := `(?:ss?|arts?)\.\s*` + sec + `(?:(?:\s*,\s*|\s+(?:and|to)\s+)` + sec + `)*`
	return regexp.MustCompile(`\b` + act + `,\s*(?:` + ref + `(?:,\s*` + secRef + `)?|` + secRef + `)`)
}()

// leadingNoise are capitalised sentence openers the act pattern can swallow
var leadingNoise = map[string]bool{
	"The": true, "Under": true, "In": true, "See": true, "Pursuant": true,
	"Section": true, "Sections": true, "And": true, "Of": true, "By": true,
	"Also": true, "Contrary": true, "Per": true,
}

// citedSection returns the paragraphs listed under the bold statutes heading,
// stopping at the next bold element or at the authors heading. The bool
// reports whether the heading exists at all.
func citedSection(p *page) ([]string, bool) {
	var out []string
	found := false
	p.doc.Find("b, strong, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := goquery.NodeName(s)
		if !found {
			if name != "p" && normaliseLabel(s.Text()) == statutesHeading {
				found = true
			}
			return true
		}
		if name != "p" || hasDescendant(s, "b", "strong") {
			return false
		}
		text := normaliseSpace(s.Text())
		if strings.Contains(strings.ToLower(text), authorsHeading) {
			return false
		}
		if text != "" {
			out = append(out, text)
		}
		return true
	})
	return out, found
}

// scanCitations finds citation shaped spans in one run of text, in order
func scanCitations(body string) []string {
	matches := citationPattern.FindAllString(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if c := trimLeadingNoise(normaliseSpace(m)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func trimLeadingNoise(s string) string {
	words := strings.Fields(s)
	i := 0
	for i < len(words)-1 {
		w := words[i]
		if leadingNoise[w] || (w != "" && w[0] >= 'a' && w[0] <= 'z') {
			i++
			continue
		}
		break
	}
	return strings.Join(words[i:], " ")
}

// extractStatutes returns the cited statutes that pass keep, in citation order
// and without deduplication, plus the strategy used.
func extractStatutes(p *page, keep func(string) bool) ([]string, string) {
	candidates, found := citedSection(p)
	source := "cited section"
	if !found {
		candidates = nil
		for _, seg := range p.segments {
			candidates = append(candidates, scanCitations(seg)...)
		}
		source = "citation pattern"
	}

	statutes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if keep == nil || keep(c) {
			statutes = append(statutes, c)
		}
	}
	if len(statutes) == 0 {
		return statutes, ""
	}
	return statutes, source
}
