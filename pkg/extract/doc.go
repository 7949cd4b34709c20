// Package extract is the structured extraction engine. It turns a fetched case
// document into a CaseRecord using ordered, named strategies per field: the
// first strategy that yields a value wins, and a field no strategy can locate
// is left empty for the classifier to judge.
//
// Metadata comes from labelled table cells, then definition lists, then a
// "Label: value" scan of block text, then field specific patterns such as the
// neutral citation shape. Facts come from the section under an underlined
// Facts heading, falling back to an ordinary or bold heading. Statutes come
// from the "Statutes and Regulations Cited" list, falling back to a scan for
// citation shaped text.
package extract
