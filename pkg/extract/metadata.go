package extract

import (
	"regexp"
	"strings"

	"casecorpus/pkg/models"
)

// strategy locates one field value in a page. An empty result means "not found"
// and the next strategy for the field is tried.
type strategy struct {
	name string
	find func(*page) string
}

// field binds a CaseRecord field to its ordered strategies
type field struct {
	name       string
	set        func(*models.CaseRecord, string)
	strategies []strategy
}

// Label variants seen across eras of the archive's case pages
var (
	collectionLabels   = []string{"collection"}
	dateLabels         = []string{"date", "judgment date", "date of judgment", "decision date"}
	citationLabels     = []string{"neutral citation", "citation"}
	caseNumberLabels   = []string{"case number", "docket", "docket number", "file number", "file no.", "file no"}
	judgesLabels       = []string{"judges", "coram", "present"}
	onAppealFromLabels = []string{"on appeal from", "appeal from", "on appeal"}
	subjectsLabels     = []string{"subjects", "subject"}
)

var (
	neutralCitationPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\s+(?:SCC|CSC)\s+\d+\b`)
	longDatePattern        = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+(?:1[89]|20)\d{2}\b`)
	isoDatePattern         = regexp.MustCompile(`\b(?:1[89]|20)\d{2}-\d{2}-\d{2}\b`)
)

var fields = []field{
	{
		name: "Title",
		set:  func(r *models.CaseRecord, v string) { r.Title = v },
		strategies: []strategy{
			{"title heading", selectorText("h3.title")},
			{"first h1", selectorText("h1")},
			{"document title", selectorText("head title")},
		},
	},
	{
		name:       "Collection",
		set:        func(r *models.CaseRecord, v string) { r.Collection = v },
		strategies: labelled(collectionLabels),
	},
	{
		name: "Date",
		set:  func(r *models.CaseRecord, v string) { r.Date = v },
		strategies: append(labelled(dateLabels),
			strategy{"long date pattern", bodyPattern(longDatePattern)},
			strategy{"iso date pattern", bodyPattern(isoDatePattern)},
		),
	},
	{
		name: "Neutral Citation",
		set:  func(r *models.CaseRecord, v string) { r.NeutralCitation = v },
		strategies: append(labelled(citationLabels),
			strategy{"neutral citation pattern", bodyPattern(neutralCitationPattern)},
		),
	},
	{
		name:       "Case Number",
		set:        func(r *models.CaseRecord, v string) { r.CaseNumber = v },
		strategies: labelled(caseNumberLabels),
	},
	{
		name:       "Judges",
		set:        func(r *models.CaseRecord, v string) { r.Judges = v },
		strategies: labelled(judgesLabels),
	},
	{
		name:       "On Appeal From",
		set:        func(r *models.CaseRecord, v string) { r.OnAppealFrom = v },
		strategies: labelled(onAppealFromLabels),
	},
	{
		name:       "Subjects",
		set:        func(r *models.CaseRecord, v string) { r.Subjects = v },
		strategies: labelled(subjectsLabels),
	},
}

// labelled returns the structural strategies followed by the line scan for labels
func labelled(labels []string) []strategy {
	return []strategy{
		{"table cell", func(p *page) string { return lookup(p.cells, labels) }},
		{"definition list", func(p *page) string { return lookup(p.defs, labels) }},
		{"label line", lineScan(labels)},
	}
}

func lookup(index map[string]string, labels []string) string {
	for _, l := range labels {
		if v := index[l]; v != "" {
			return v
		}
	}
	return ""
}

func selectorText(sel string) func(*page) string {
	return func(p *page) string {
		return normaliseSpace(p.doc.Find(sel).First().Text())
	}
}

func bodyPattern(re *regexp.Regexp) func(*page) string {
	return func(p *page) string {
		return normaliseSpace(re.FindString(p.body))
	}
}

// lineScan looks for "Label: value" in block texts
func lineScan(labels []string) func(*page) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	re := regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\s*:\s*(.+)$`)
	return func(p *page) string {
		for _, b := range p.blocks {
			if m := re.FindStringSubmatch(b); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
		return ""
	}
}

// extractMetadata applies each field's strategies in order, first match wins.
// It returns the strategy that supplied each field found.
func extractMetadata(p *page, rec *models.CaseRecord) map[string]string {
	trace := make(map[string]string)
	for _, f := range fields {
		for _, s := range f.strategies {
			if v := s.find(p); v != "" {
				f.set(rec, v)
				trace[f.name] = s.name
				break
			}
		}
	}
	return trace
}

// labelStrategies are the strategies that prove a document carries case metadata
var labelStrategies = map[string]bool{
	"table cell":      true,
	"definition list": true,
	"label line":      true,
}
