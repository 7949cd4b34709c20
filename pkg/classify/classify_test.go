package classify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"casecorpus/pkg/models"
)

func TestMatcher(t *testing.T) {
	m := NewMatcher([]string{"Criminal", " criminal ", "", "theft"})

	assert.True(t, m.Match("CRIMINAL LAW"))
	assert.True(t, m.Match("Youth Criminal Justice Act"))
	assert.False(t, m.Match("Constitutional law"))
	assert.ElementsMatch(t, []string{"criminal", "theft"}, m.Find("Criminal law - theft"))
	assert.False(t, NewMatcher(nil).Match("criminal"))
}

func TestMatcherConcurrentUse(t *testing.T) {
	m := NewMatcher([]string{"criminal"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, m.Match("criminal code"))
			}
		}()
	}
	wg.Wait()
}

func TestClassify(t *testing.T) {
	c := New([]string{"criminal"})

	tests := []struct {
		name    string
		rec     models.CaseRecord
		want    bool
		reasons []Reason
	}{
		{
			name: "criminal subjects with facts",
			rec:  models.CaseRecord{Title: "R. v. A", Date: "2021-01-15", Subjects: "Criminal law", Facts: "Facts."},
			want: true,
		},
		{
			name: "criminal statute with empty facts",
			rec: models.CaseRecord{
				Title:    "R. v. B",
				Date:     "2021-01-15",
				Subjects: "Evidence",
				Statutes: []string{"Criminal Code, R.S.C. 1985, c. C-46, s. 322"},
			},
			want: true,
		},
		{
			name:    "missing both facts and statutes",
			rec:     models.CaseRecord{Title: "R. v. C", Date: "2021-01-15", Subjects: "Criminal law", Statutes: []string{}},
			reasons: []Reason{ReasonMissingFactsAndStatutes},
		},
		{
			name:    "not criminal",
			rec:     models.CaseRecord{Title: "Tax case", Date: "2021-01-15", Subjects: "Taxation", Facts: "Facts."},
			reasons: []Reason{ReasonNotCriminal},
		},
		{
			name:    "missing title and date",
			rec:     models.CaseRecord{Subjects: "Criminal law", Facts: "Facts."},
			reasons: []Reason{ReasonMissingTitle, ReasonMissingDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify(tt.rec)
			assert.Equal(t, tt.want, d.Accepted)
			assert.Equal(t, tt.reasons, d.Reasons)
		})
	}
}
