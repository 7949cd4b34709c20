package annotate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/sync/errgroup"

	"casecorpus/pkg/classify"
	"casecorpus/pkg/corpus"
	cerrors "casecorpus/pkg/errors"
	"casecorpus/pkg/extract"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/metrics"
	"casecorpus/pkg/models"
)

// EntrySource lists recorded checkpoint entries in processing order
type EntrySource interface {
	All() []models.CheckpointEntry
}

// DocumentSource reads stored raw documents
type DocumentSource interface {
	Get(link models.LinkRecord) (models.RawDocument, error)
}

// Options configures an Annotator
type Options struct {
	Entries        EntrySource
	Documents      DocumentSource
	Extractor      *extract.Extractor
	Classifier     *classify.Classifier
	Workers        int
	CorpusPath     string
	StatisticsPath string
	// GenerationDate is stamped into the statistics. Empty means today.
	GenerationDate string
	Metrics        *metrics.Metrics
	Logger         logger.Logger
}

// Summary counts what a pass did with each registry entry
type Summary struct {
	Entries    int
	Accepted   int
	Rejected   int
	Malformed  int
	Missing    int
	Statistics models.CorpusStatistics
}

type kind int

const (
	kindAccepted kind = iota
	kindRejected
	kindMalformed
	kindMissing
)

type outcome struct {
	kind     kind
	record   models.CaseRecord
	decision classify.Decision
	err      error
}

// Annotator rebuilds the corpus and its statistics from every recorded document
type Annotator struct {
	opts   Options
	logger logger.Logger
}

// New creates an Annotator
func New(opts Options) *Annotator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Annotator{opts: opts, logger: opts.Logger.WithField("component", "annotate")}
}

// Build extracts and classifies every recorded document and returns the
// accepted records in registry order. Nothing is written.
func (a *Annotator) Build(ctx context.Context) (models.CorpusDocument, Summary, error) {
	entries := a.opts.Entries.All()
	outcomes := make([]outcome, len(entries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out, err := a.process(entry)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	// logging and assembly happen in Seq order so output is deterministic
	assembler := corpus.NewAssembler()
	summary := Summary{Entries: len(entries)}
	for i, out := range outcomes {
		a.report(entries[i], out, &summary)
		if out.kind == kindAccepted {
			assembler.Add(out.record)
		}
	}

	return assembler.Corpus(), summary, nil
}

// Run builds the corpus, writes the corpus and statistics files and logs a summary
func (a *Annotator) Run(ctx context.Context) (Summary, error) {
	logger.LogComponentStart(a.logger, "annotate", map[string]interface{}{
		"workers": a.opts.Workers,
		"corpus":  a.opts.CorpusPath,
	})

	doc, summary, err := a.Build(ctx)
	if err != nil {
		return summary, err
	}

	date := a.opts.GenerationDate
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	stats := corpus.ComputeStatistics(doc, date)
	summary.Statistics = stats

	if err := corpus.WriteCorpus(a.opts.CorpusPath, doc); err != nil {
		return summary, err
	}
	if a.opts.StatisticsPath != "" {
		if err := corpus.WriteStatistics(a.opts.StatisticsPath, stats); err != nil {
			return summary, err
		}
	}

	a.logger.InfoWithFields("Corpus written", map[string]interface{}{
		"path":      a.opts.CorpusPath,
		"entries":   summary.Entries,
		"accepted":  summary.Accepted,
		"rejected":  summary.Rejected,
		"malformed": summary.Malformed,
		"missing":   summary.Missing,
	})
	corpus.LogSummary(a.logger, stats)
	logger.LogComponentStop(a.logger, "annotate", "completed")
	return summary, nil
}

// process handles one entry. Only unexpected read failures are returned as errors.
func (a *Annotator) process(entry models.CheckpointEntry) (outcome, error) {
	link := models.LinkRecord{SourceURL: entry.SourceURL, CaseNumber: entry.CaseNumber}

	doc, err := a.opts.Documents.Get(link)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return outcome{kind: kindMissing, err: err}, nil
		}
		return outcome{}, fmt.Errorf("failed to load %s: %w", entry.SourceURL, err)
	}

	rec, err := a.opts.Extractor.Extract(doc)
	if err != nil {
		if cerrors.IsMalformed(err) {
			return outcome{kind: kindMalformed, err: err}, nil
		}
		return outcome{}, err
	}

	if a.opts.Classifier == nil {
		return outcome{kind: kindAccepted, record: rec}, nil
	}
	decision := a.opts.Classifier.Classify(rec)
	if !decision.Accepted {
		return outcome{kind: kindRejected, record: rec, decision: decision}, nil
	}
	return outcome{kind: kindAccepted, record: rec, decision: decision}, nil
}

func (a *Annotator) report(entry models.CheckpointEntry, out outcome, summary *Summary) {
	fields := map[string]interface{}{
		"url": entry.SourceURL,
		"seq": entry.Seq,
	}

	switch out.kind {
	case kindAccepted:
		summary.Accepted++
		a.opts.Metrics.Annotated(metrics.OutcomeAccepted)
		fields["title"] = out.record.Title
		a.logger.DebugWithFields("Case accepted", fields)

	case kindRejected:
		summary.Rejected++
		reasons := make([]string, len(out.decision.Reasons))
		for i, r := range out.decision.Reasons {
			reasons[i] = string(r)
		}
		a.opts.Metrics.Annotated(reasons[0])
		fields["title"] = out.record.Title
		fields["reasons"] = reasons
		a.logger.InfoWithFields("Case rejected", fields)

	case kindMalformed:
		summary.Malformed++
		a.opts.Metrics.Annotated(metrics.OutcomeMalformed)
		a.logger.WithError(out.err).WarnWithFields("Malformed document left for review", fields)

	case kindMissing:
		summary.Missing++
		a.opts.Metrics.Annotated(metrics.OutcomeMissing)
		a.logger.WithError(out.err).WarnWithFields("Raw document missing", fields)
	}
}
