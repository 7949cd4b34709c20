package corpus

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"casecorpus/pkg/models"
)

// CharsPerToken is the approximation used for token estimates: one token per
// four characters of text.
const CharsPerToken = 4

const (
	statisticsName        = "SCC Criminal Cases Corpus Statistics"
	statisticsDescription = "Statistical analysis of the Supreme Court of Canada criminal cases corpus"
)

var yearPattern = regexp.MustCompile(`\b(?:1[89]|20)\d{2}\b`)

// EstimateTokens approximates the token count of text
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}

// caseYear returns the last four digit year in a date string, or "" if none
func caseYear(date string) string {
	matches := yearPattern.FindAllString(date, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// ComputeStatistics derives the corpus statistics. Lengths are measured on
// Facts. It is a pure function of its inputs; generatedOn is formatted as the
// generation date.
func ComputeStatistics(corpus models.CorpusDocument, generatedOn string) models.CorpusStatistics {
	stats := models.CorpusStatistics{
		Name:           statisticsName,
		Description:    statisticsDescription,
		GenerationDate: generatedOn,
	}
	stats.CorpusOverview.YearRange = "N/A"

	total := len(corpus)
	stats.CorpusOverview.TotalCases = total
	if total == 0 {
		return stats
	}

	var (
		totalChars    int
		totalTokens   int
		totalStatutes int
		minYear       string
		maxYear       string
	)
	minIdx, maxIdx := 0, 0
	minTokens, maxTokens := 0, 0

	for i, rec := range corpus {
		chars := utf8.RuneCountInString(rec.Facts)
		tokens := chars / CharsPerToken

		totalChars += chars
		totalTokens += tokens
		totalStatutes += len(rec.Statutes)

		if i == 0 || tokens < minTokens {
			minTokens, minIdx = tokens, i
		}
		if i == 0 || tokens > maxTokens {
			maxTokens, maxIdx = tokens, i
		}

		if y := caseYear(rec.Date); y != "" {
			if minYear == "" || y < minYear {
				minYear = y
			}
			if maxYear == "" || y > maxYear {
				maxYear = y
			}
		}
	}

	if minYear != "" {
		stats.CorpusOverview.YearRange = fmt.Sprintf("%s - %s", minYear, maxYear)
	}
	stats.CorpusOverview.TotalCharacters = totalChars
	stats.CorpusOverview.EstimatedTokens = totalTokens

	stats.CaseLength = models.CaseLength{
		AverageTokens:     totalTokens / total,
		AverageCharacters: totalChars / total,
		MinTokens:         minTokens,
		MinCase:           corpus[minIdx].Title,
		MaxTokens:         maxTokens,
		MaxCase:           corpus[maxIdx].Title,
	}
	stats.LegalContent = models.LegalContent{
		TotalStatutes:          totalStatutes,
		AverageStatutesPerCase: float64(totalStatutes) / float64(total),
	}

	return stats
}
