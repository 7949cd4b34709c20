package classify

import (
	"casecorpus/pkg/models"
)

// Reason names why a record was rejected
type Reason string

const (
	ReasonNotCriminal             Reason = "not_criminal"
	ReasonMissingTitle            Reason = "missing_title"
	ReasonMissingDate             Reason = "missing_date"
	ReasonMissingFactsAndStatutes Reason = "missing_facts_and_statutes"
)

// Decision is the outcome of classifying one record. Reasons is empty when
// the record is accepted and otherwise lists every failed check in order.
type Decision struct {
	Accepted bool
	Reasons  []Reason
}

// Classifier decides whether a CaseRecord belongs in the criminal corpus
type Classifier struct {
	criminal *Matcher
}

// New returns a Classifier using keywords as the criminal-law signal
func New(keywords []string) *Classifier {
	return &Classifier{criminal: NewMatcher(keywords)}
}

// Classify accepts rec when its subjects or any cited statute carry a
// criminal-law keyword, it has a title and a date, and it has facts or
// statutes. Rejection is an outcome, not an error.
func (c *Classifier) Classify(rec models.CaseRecord) Decision {
	var reasons []Reason

	if !c.isCriminal(rec) {
		reasons = append(reasons, ReasonNotCriminal)
	}
	if rec.Title == "" {
		reasons = append(reasons, ReasonMissingTitle)
	}
	if rec.Date == "" {
		reasons = append(reasons, ReasonMissingDate)
	}
	if rec.Facts == "" && len(rec.Statutes) == 0 {
		reasons = append(reasons, ReasonMissingFactsAndStatutes)
	}

	return Decision{Accepted: len(reasons) == 0, Reasons: reasons}
}

func (c *Classifier) isCriminal(rec models.CaseRecord) bool {
	if c.criminal.Match(rec.Subjects) {
		return true
	}
	for _, s := range rec.Statutes {
		if c.criminal.Match(s) {
			return true
		}
	}
	return false
}
