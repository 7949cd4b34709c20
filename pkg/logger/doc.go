// Package logger provides the structured logging interface used across the
// corpus builder.
//
// It wraps zerolog. Console output is colored when attached to a terminal and
// plain JSON otherwise. A configured log file is rotated with lumberjack.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("window", w.String()).Info("Processing window")
//	log.InfoWithFields("Link recorded", map[string]interface{}{
//	    "url":         link.SourceURL,
//	    "case_number": entry.CaseNumber,
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
