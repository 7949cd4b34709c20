// Package classify holds the lexical criminal-law relevance check and the
// mandatory field check applied to every extracted CaseRecord.
package classify
