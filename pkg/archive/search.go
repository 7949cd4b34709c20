package archive

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"casecorpus/pkg/config"
	"casecorpus/pkg/models"
)

// ErrNoResults means a search page had no result list to navigate
var ErrNoResults = errors.New("search returned no navigable results")

// Search builds result page URLs for a window and extracts case links from them
type Search struct {
	BaseURL        string
	SearchPath     string
	SubjectID      string
	ResultSelector string
}

// NewSearch creates a Search from the archive configuration
func NewSearch(cfg config.ArchiveConfig) Search {
	return Search{
		BaseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		SearchPath:     cfg.SearchPath,
		SubjectID:      cfg.SubjectID,
		ResultSelector: cfg.ResultSelector,
	}
}

// URL returns the result page URL for window w. The archive takes inclusive
// dates, so d2 is the window's last day. Page 1 leaves p empty.
func (s Search) URL(w models.SearchWindow, page int) string {
	d1 := ""
	if !w.Start.IsZero() {
		d1 = w.Start.Format(models.DateLayout)
	}
	d2 := w.LastDay().Format(models.DateLayout)

	p := ""
	if page > 1 {
		p = strconv.Itoa(page)
	}

	return fmt.Sprintf("%s%s?cont=&ref=&d1=%s&d2=%s&p=%s&su=%s&or=",
		s.BaseURL, s.SearchPath, url.QueryEscape(d1), url.QueryEscape(d2), p, url.QueryEscape(s.SubjectID))
}

// ParseResults extracts case links from a result page in document order.
// Relative links resolve against pageURL. Duplicate links on a page are dropped.
func (s Search) ParseResults(content []byte, pageURL string, w models.SearchWindow) ([]models.LinkRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	seen := make(map[string]bool)
	var links []models.LinkRecord
	doc.Find(s.ResultSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		link := abs.String()
		if seen[link] {
			return
		}
		seen[link] = true

		links = append(links, models.LinkRecord{
			SourceURL: link,
			Title:     strings.Join(strings.Fields(a.Text()), " "),
			Window:    w,
		})
	})

	return links, nil
}
