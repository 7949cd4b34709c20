package classify

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Matcher finds any of a fixed keyword set in text in a single pass,
// case-insensitively. It is safe for concurrent use.
type Matcher struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewMatcher builds the automaton for keywords. Blank keywords are ignored.
func NewMatcher(keywords []string) *Matcher {
	normalized := make([]string, 0, len(keywords))
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		normalized = append(normalized, kw)
	}

	m := &Matcher{keywords: normalized}
	if len(normalized) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return m
}

// Match reports whether text contains at least one keyword
func (m *Matcher) Match(text string) bool {
	return len(m.Find(text)) > 0
}

// Find returns the keywords present in text
func (m *Matcher) Find(text string) []string {
	if m.matcher == nil || text == "" {
		return nil
	}
	hits := m.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	found := make([]string, 0, len(hits))
	for _, i := range hits {
		if i < len(m.keywords) {
			found = append(found, m.keywords[i])
		}
	}
	return found
}
