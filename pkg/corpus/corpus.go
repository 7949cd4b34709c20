package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"casecorpus/pkg/logger"
	"casecorpus/pkg/models"
	"casecorpus/pkg/storage"
)

// Assembler collects accepted records in processing order
type Assembler struct {
	records models.CorpusDocument
}

// NewAssembler returns an empty Assembler
func NewAssembler() *Assembler {
	return &Assembler{records: models.CorpusDocument{}}
}

// Add appends rec. Callers add records in registry sequence order.
func (a *Assembler) Add(rec models.CaseRecord) {
	if rec.Statutes == nil {
		rec.Statutes = []string{}
	}
	a.records = append(a.records, rec)
}

// Len returns the number of records collected
func (a *Assembler) Len() int {
	return len(a.records)
}

// Corpus returns the assembled corpus
func (a *Assembler) Corpus() models.CorpusDocument {
	out := make(models.CorpusDocument, len(a.records))
	copy(out, a.records)
	return out
}

// Marshal encodes v as the published JSON layout: four space indentation and
// no HTML escaping.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCorpus atomically replaces the corpus file
func WriteCorpus(path string, corpus models.CorpusDocument) error {
	if corpus == nil {
		corpus = models.CorpusDocument{}
	}
	data, err := Marshal(corpus)
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	return nil
}

// ReadCorpus loads a corpus file
func ReadCorpus(path string) (models.CorpusDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	var corpus models.CorpusDocument
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return corpus, nil
}

// WriteStatistics atomically replaces the statistics file
func WriteStatistics(path string, stats models.CorpusStatistics) error {
	data, err := Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}

// LogSummary writes the statistics as one structured summary line
func LogSummary(log logger.Logger, stats models.CorpusStatistics) {
	log.InfoWithFields("Corpus statistics", map[string]interface{}{
		"total_cases":               stats.CorpusOverview.TotalCases,
		"year_range":                stats.CorpusOverview.YearRange,
		"total_characters":          stats.CorpusOverview.TotalCharacters,
		"estimated_tokens":          stats.CorpusOverview.EstimatedTokens,
		"average_tokens":            stats.CaseLength.AverageTokens,
		"average_characters":        stats.CaseLength.AverageCharacters,
		"shortest_case":             fmt.Sprintf("%d tokens (%s)", stats.CaseLength.MinTokens, stats.CaseLength.MinCase),
		"longest_case":              fmt.Sprintf("%d tokens (%s)", stats.CaseLength.MaxTokens, stats.CaseLength.MaxCase),
		"total_statutes":            stats.LegalContent.TotalStatutes,
		"average_statutes_per_case": fmt.Sprintf("%.2f", stats.LegalContent.AverageStatutesPerCase),
	})
}
