package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// page is a parsed case document with the indexes the strategies share
type page struct {
	doc *goquery.Document

	// cells maps a normalised label from a table row to the text of the cell after it
	cells map[string]string
	// defs maps a normalised dt label to the text of the following dd
	defs map[string]string
	// blocks holds the text of block level elements in document order
	blocks []string
	// segments holds the body text split at every block element boundary
	segments []string
	// body is the segments joined with single spaces
	body string
}

// blockElements end the text run before them and start a new one
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"caption": true, "dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

func parsePage(content []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, noscript").Remove()

	p := &page{
		doc:   doc,
		cells: make(map[string]string),
		defs:  make(map[string]string),
	}

	doc.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		label := normaliseLabel(cell.Text())
		if label == "" {
			return
		}
		if _, seen := p.cells[label]; seen {
			return
		}
		next := cell.NextFiltered("td")
		if next.Length() == 0 {
			return
		}
		p.cells[label] = normaliseSpace(next.Text())
	})

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := normaliseLabel(dt.Text())
		if label == "" {
			return
		}
		if _, seen := p.defs[label]; seen {
			return
		}
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}
		p.defs[label] = normaliseSpace(dd.Text())
	})

	doc.Find("p, li, h1, h2, h3, h4, h5, h6, dt, dd, tr, div").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "div" && s.Find("p, li, h1, h2, h3, h4, h5, h6, dt, dd, tr, div").Length() > 0 {
			return
		}
		if text := blockText(s); text != "" {
			p.blocks = append(p.blocks, text)
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	for _, n := range body.Nodes {
		p.segments = append(p.segments, textSegments(n)...)
	}
	p.body = strings.Join(p.segments, " ")

	return p, nil
}

// textSegments returns the text under n split at block element boundaries,
// so text from adjacent blocks never runs together.
func textSegments(n *html.Node) []string {
	var segments []string
	var run strings.Builder
	flush := func() {
		if t := normaliseSpace(run.String()); t != "" {
			segments = append(segments, t)
		}
		run.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			run.WriteString(n.Data)
			return
		case html.ElementNode:
			if blockElements[n.Data] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	flush()
	return segments
}

// blockText returns the element text with table cells separated so a row
// reads as "Label: value" when the label cell ends with a colon.
func blockText(s *goquery.Selection) string {
	if goquery.NodeName(s) != "tr" {
		return normaliseSpace(s.Text())
	}
	var parts []string
	s.Children().Each(func(_ int, cell *goquery.Selection) {
		if t := normaliseSpace(cell.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// normaliseSpace collapses runs of whitespace, non-breaking spaces included, to single spaces
func normaliseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normaliseLabel lowercases a label and drops a trailing colon
func normaliseLabel(s string) string {
	s = strings.ToLower(normaliseSpace(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, ":"))
	if len(s) > 60 {
		return ""
	}
	return s
}

// hasDescendant reports whether any descendant element of s is one of tags
func hasDescendant(s *goquery.Selection, tags ...string) bool {
	for _, n := range s.Nodes {
		if findElement(n, tags) {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tags []string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			for _, t := range tags {
				if c.Data == t {
					return true
				}
			}
		}
		if findElement(c, tags) {
			return true
		}
	}
	return false
}

// boldOnly reports whether all visible text of s sits inside bold elements
func boldOnly(s *goquery.Selection) bool {
	text := normaliseSpace(s.Text())
	if text == "" {
		return false
	}
	if s.Find("b, strong").Length() == 0 {
		return false
	}
	rest := s.Clone()
	rest.Find("b, strong").Remove()
	return normaliseSpace(rest.Text()) == ""
}
