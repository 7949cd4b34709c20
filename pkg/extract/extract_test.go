package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casecorpus/pkg/errors"
	"casecorpus/pkg/models"
)

func criminalOnly(s string) bool {
	return strings.Contains(strings.ToLower(s), "criminal")
}

func rawDoc(t *testing.T, name, url string) models.RawDocument {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return models.RawDocument{Link: models.LinkRecord{SourceURL: url}, Content: content}
}

func TestExtractModernDocument(t *testing.T) {
	doc := rawDoc(t, "modern.html", "https://archive.test/en/item/19062/index.do")

	rec, trace, err := New(criminalOnly).ExtractWithTrace(doc)
	require.NoError(t, err)

	assert.Equal(t, "R. v. Example", rec.Title)
	assert.Equal(t, "Supreme Court Judgments", rec.Collection)
	assert.Equal(t, "2021-01-15", rec.Date)
	assert.Equal(t, "2021 SCC 3", rec.NeutralCitation)
	assert.Equal(t, "39053", rec.CaseNumber)
	assert.Equal(t, "Wagner, Richard; Abella, Rosalie Silberman; Moldaver, Michael J.", rec.Judges)
	assert.Equal(t, "Ontario", rec.OnAppealFrom)
	assert.Equal(t, "Criminal law", rec.Subjects)
	assert.Equal(t, "https://archive.test/en/item/19062/index.do", rec.OriginalURL)

	// Duplicates are kept and order follows the source
	assert.Equal(t, []string{
		"Criminal Code, R.S.C. 1985, c. C-46, s. 322.",
		"Criminal Code, R.S.C. 1985, c. C-46, s. 322.",
	}, rec.Statutes)

	// The underlined section runs past the h4 up to the next underlined heading
	assert.Equal(t, "The accused was charged with theft. Procedural history He was convicted at trial.", rec.Facts)

	assert.Equal(t, "title heading", trace["Title"])
	assert.Equal(t, "table cell", trace["Case Number"])
	assert.Equal(t, "underlined heading", trace["Facts"])
	assert.Equal(t, "cited section", trace["Statutes and Regulations Cited"])
}

func TestExtractLegacyDocumentUsesFallbacks(t *testing.T) {
	doc := rawDoc(t, "legacy.html", "https://archive.test/en/item/100/index.do")

	rec, trace, err := New(nil).ExtractWithTrace(doc)
	require.NoError(t, err)

	assert.Equal(t, "Smith v. The Queen", rec.Title)
	assert.Equal(t, "17321.", rec.CaseNumber)
	assert.Equal(t, "Dickson, Beetz and Estey JJ.", rec.Judges)
	assert.Equal(t, "March 5, 1984", rec.Date)
	assert.Empty(t, rec.NeutralCitation)
	assert.Empty(t, rec.Subjects)
	assert.Equal(t, "The appellant took a car. He was convicted.", rec.Facts)
	assert.Equal(t, []string{
		"Criminal Code, R.S.C. 1970, c. C-34, s. 294",
		"Canada Evidence Act, R.S.C. 1970, c. E-10, s. 12",
	}, rec.Statutes)

	assert.Equal(t, "first h1", trace["Title"])
	assert.Equal(t, "label line", trace["Case Number"])
	assert.Equal(t, "long date pattern", trace["Date"])
	assert.Equal(t, "section heading", trace["Facts"])
	assert.Equal(t, "citation pattern", trace["Statutes and Regulations Cited"])
}

func TestExtractStatuteKeywordFilter(t *testing.T) {
	doc := rawDoc(t, "legacy.html", "https://archive.test/en/item/100/index.do")

	rec, err := New(criminalOnly).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Criminal Code, R.S.C. 1970, c. C-34, s. 294"}, rec.Statutes)
}

func TestExtractMissingSectionsLeavesFieldsEmpty(t *testing.T) {
	doc := models.RawDocument{
		Link:    models.LinkRecord{SourceURL: "https://archive.test/x"},
		Content: []byte(`<html><body><h3 class="title">R. v. Bare</h3><p>Nothing else here.</p></body></html>`),
	}

	rec, err := New(criminalOnly).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "R. v. Bare", rec.Title)
	assert.Empty(t, rec.Facts)
	assert.NotNil(t, rec.Statutes)
	assert.Empty(t, rec.Statutes)
	assert.Empty(t, rec.Date)
}

func TestExtractMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty body", `<html><body>  </body></html>`},
		{"no title or labels", `<html><body><p>just some words</p></body></html>`},
		{"script only", `<html><body><script>var x = 1;</script></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).Extract(models.RawDocument{
				Link:    models.LinkRecord{SourceURL: "https://archive.test/bad"},
				Content: []byte(tt.content),
			})
			require.Error(t, err)
			assert.True(t, errors.IsMalformed(err))
		})
	}
}

func TestExtractLabelsWithoutTitleIsNotMalformed(t *testing.T) {
	doc := models.RawDocument{
		Link:    models.LinkRecord{SourceURL: "https://archive.test/y"},
		Content: []byte(`<html><body><dl><dt>Date:</dt><dd>2019-05-02</dd></dl></body></html>`),
	}

	rec, trace, err := New(nil).ExtractWithTrace(doc)
	require.NoError(t, err)
	assert.Equal(t, "2019-05-02", rec.Date)
	assert.Equal(t, "definition list", trace["Date"])
}

func TestCitationPattern(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{
			"The accused was charged under the Criminal Code, R.S.C. 1985, c. C-46, s. 322.",
			[]string{"Criminal Code, R.S.C. 1985, c. C-46, s. 322"},
		},
		{
			"Controlled Drugs and Substances Act, S.C. 1996, c. 19, s. 5(2), and more",
			[]string{"Controlled Drugs and Substances Act, S.C. 1996, c. 19, s. 5(2)"},
		},
		{
			"Canadian Charter of Rights and Freedoms, ss. 7, 8 and 24(2).",
			[]string{"Canadian Charter of Rights and Freedoms, ss. 7, 8 and 24(2)"},
		},
		{
			"Youth Criminal Justice Act, S.C. 2002, c. 1",
			[]string{"Youth Criminal Justice Act, S.C. 2002, c. 1"},
		},
		{"No citation in this sentence, really.", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, scanCitations(tt.text))
		})
	}
}

func TestCaseIdentifier(t *testing.T) {
	modern, err := os.ReadFile(filepath.Join("testdata", "modern.html"))
	require.NoError(t, err)
	assert.Equal(t, "39053", CaseIdentifier(modern))

	citationOnly := []byte(`<html><body><h1>R. v. Cite</h1><p>Reported as 2020 SCC 5.</p></body></html>`)
	assert.Equal(t, "citation-2020 SCC 5", CaseIdentifier(citationOnly))

	assert.Equal(t, "", CaseIdentifier([]byte(`<html><body><p>nothing</p></body></html>`)))
}

func TestExtractFallbacksRespectBlockBoundaries(t *testing.T) {
	doc := models.RawDocument{
		Link: models.LinkRecord{SourceURL: "https://archive.test/en/item/7/index.do"},
		Content: []byte(`<html><body>
<h1>R. v. Adjacent</h1><p>Decided</p><p>January 15, 2021</p><p>Reported as</p><p>2021 SCC 5</p>
<h2>Legislation</h2><p>Criminal Code, R.S.C. 1985, c. C-46, s. 322</p><div>Canada Evidence Act, R.S.C. 1985, c. C-5, s. 4</div>
</body></html>`),
	}

	rec, trace, err := New(nil).ExtractWithTrace(doc)
	require.NoError(t, err)

	assert.Equal(t, "January 15, 2021", rec.Date)
	assert.Equal(t, "long date pattern", trace["Date"])
	assert.Equal(t, "2021 SCC 5", rec.NeutralCitation)
	assert.Equal(t, "neutral citation pattern", trace["Neutral Citation"])
	assert.Equal(t, []string{
		"Criminal Code, R.S.C. 1985, c. C-46, s. 322",
		"Canada Evidence Act, R.S.C. 1985, c. C-5, s. 4",
	}, rec.Statutes)
	assert.Equal(t, "citation pattern", trace["Statutes and Regulations Cited"])
}

func TestTextSegments(t *testing.T) {
	p, err := parsePage([]byte(`<html><body>
<h2>Legislation</h2><p>Criminal <i>Code</i>, s. 1</p><ul><li>one</li><li>two<br>three</li></ul>
<table><tr><td>Date</td><td>2021-01-15</td></tr></table>loose text
</body></html>`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Legislation", "Criminal Code, s. 1", "one", "two", "three", "Date", "2021-01-15", "loose text",
	}, p.segments)
	assert.Equal(t, "Legislation Criminal Code, s. 1 one two three Date 2021-01-15 loose text", p.body)
}
