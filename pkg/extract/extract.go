package extract

import (
	"casecorpus/pkg/errors"
	"casecorpus/pkg/models"
)

// Trace records which strategy supplied each extracted field
type Trace map[string]string

// Extractor turns raw case documents into CaseRecords. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	keepStatute func(string) bool
}

// New returns an Extractor that keeps only statutes accepted by keepStatute.
// A nil keepStatute keeps every citation found.
func New(keepStatute func(string) bool) *Extractor {
	return &Extractor{keepStatute: keepStatute}
}

// Extract builds the CaseRecord for doc. Missing fields are left empty; only a
// document with no text, or with neither a title nor any labelled metadata,
// is reported as malformed.
func (e *Extractor) Extract(doc models.RawDocument) (models.CaseRecord, error) {
	rec, _, err := e.ExtractWithTrace(doc)
	return rec, err
}

// ExtractWithTrace is Extract that also reports the strategy behind each field
func (e *Extractor) ExtractWithTrace(doc models.RawDocument) (models.CaseRecord, Trace, error) {
	url := doc.Link.SourceURL
	p, err := parsePage(doc.Content)
	if err != nil {
		return models.CaseRecord{}, nil, errors.NewMalformed(url, "unparseable document: "+err.Error())
	}
	if p.body == "" {
		return models.CaseRecord{}, nil, errors.NewMalformed(url, "document has no text")
	}

	rec := models.CaseRecord{OriginalURL: url}
	trace := Trace(extractMetadata(p, &rec))

	if rec.Title == "" && !hasLabelledMetadata(trace) {
		return models.CaseRecord{}, trace, errors.NewMalformed(url, "document has neither a title nor metadata labels")
	}

	facts, source := extractFacts(p)
	rec.Facts = facts
	if source != "" {
		trace["Facts"] = source
	}

	statutes, source := extractStatutes(p, e.keepStatute)
	rec.Statutes = statutes
	if source != "" {
		trace["Statutes and Regulations Cited"] = source
	}

	return rec, trace, nil
}

func hasLabelledMetadata(trace map[string]string) bool {
	for _, s := range trace {
		if labelStrategies[s] {
			return true
		}
	}
	return false
}

// CaseIdentifier returns the value recorded in the checkpoint for a fetched
// document: its case number, else its neutral citation prefixed "citation-",
// else the empty string.
func CaseIdentifier(content []byte) string {
	p, err := parsePage(content)
	if err != nil {
		return ""
	}
	var rec models.CaseRecord
	extractMetadata(p, &rec)
	if rec.CaseNumber != "" {
		return rec.CaseNumber
	}
	if rec.NeutralCitation != "" {
		return "citation-" + rec.NeutralCitation
	}
	return ""
}
