package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in configuration and search queries.
const DateLayout = "2006-01-02"

// SearchWindow is a half-open date interval [Start, End) used to partition the crawl.
// A zero Start means the window has no lower bound.
type SearchWindow struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	MaxCases int       `json:"max_cases,omitempty"`
}

// LastDay returns the inclusive last calendar day of the window.
func (w SearchWindow) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

func (w SearchWindow) String() string {
	start := "-inf"
	if !w.Start.IsZero() {
		start = w.Start.Format(DateLayout)
	}
	return fmt.Sprintf("[%s, %s)", start, w.End.Format(DateLayout))
}

// LinkRecord is a candidate case document discovered on a search result page.
// Its identity is SourceURL; CaseNumber may be unknown at discovery time.
type LinkRecord struct {
	SourceURL  string       `json:"source_url"`
	CaseNumber string       `json:"case_number,omitempty"`
	Title      string       `json:"title,omitempty"`
	Window     SearchWindow `json:"window"`
}

// CheckpointEntry is the durable projection of a LinkRecord whose document
// has been fetched and stored.
type CheckpointEntry struct {
	SourceURL  string    `json:"-"`
	CaseNumber string    `json:"case_number"`
	Seq        int       `json:"seq"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RawDocument is the fetched content for exactly one LinkRecord.
type RawDocument struct {
	Link      LinkRecord
	ID        string
	Content   []byte
	FetchedAt time.Time
}

// CaseRecord is the structured unit extracted from one case document.
// JSON keys follow the published corpus format.
type CaseRecord struct {
	Title           string   `json:"Title"`
	Collection      string   `json:"Collection"`
	Date            string   `json:"Date"`
	NeutralCitation string   `json:"Neutral Citation"`
	CaseNumber      string   `json:"Case Number"`
	Judges          string   `json:"Judges"`
	OnAppealFrom    string   `json:"On Appeal From"`
	Subjects        string   `json:"Subjects"`
	Statutes        []string `json:"Statutes and Regulations Cited"`
	Facts           string   `json:"Facts"`
	OriginalURL     string   `json:"Original URL"`
}

// CorpusDocument is the ordered sequence of accepted case records.
type CorpusDocument []CaseRecord

// CorpusStatistics is the aggregate view of a finalized corpus.
type CorpusStatistics struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	GenerationDate string         `json:"generation_date"`
	CorpusOverview CorpusOverview `json:"corpus_overview"`
	CaseLength     CaseLength     `json:"case_length"`
	LegalContent   LegalContent   `json:"legal_content"`
}

type CorpusOverview struct {
	TotalCases      int    `json:"total_cases"`
	YearRange       string `json:"year_range"`
	TotalCharacters int    `json:"total_characters"`
	EstimatedTokens int    `json:"estimated_tokens"`
}

type CaseLength struct {
	AverageTokens     int    `json:"average_tokens"`
	AverageCharacters int    `json:"average_characters"`
	MinTokens         int    `json:"min_tokens"`
	MinCase           string `json:"min_case"`
	MaxTokens         int    `json:"max_tokens"`
	MaxCase           string `json:"max_case"`
}

type LegalContent struct {
	TotalStatutes          int     `json:"total_statutes"`
	AverageStatutesPerCase float64 `json:"average_statutes_per_case"`
}
