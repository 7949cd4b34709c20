// Package annotate turns the documents recorded in the checkpoint registry
// into the published corpus.
//
// Every registry entry is loaded from the raw store, run through the
// extraction engine and the classifier on a bounded set of goroutines, and
// the accepted records are assembled in registry sequence order. The corpus
// and its statistics are then replaced atomically.
//
// Outcomes per entry:
//
//   - accepted: the record is appended to the corpus
//   - rejected: the classifier's reasons are logged, nothing is written
//   - malformed: the entry stays recorded and is logged for review
//   - missing: the raw file is gone; logged, the entry is kept
//
// Because the corpus is rebuilt from the full registry on every pass, a
// second run over the same registry and raw store produces byte-identical
// output when the generation date is the same.
package annotate
