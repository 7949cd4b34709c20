package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"casecorpus/pkg/annotate"
	"casecorpus/pkg/archive"
	"casecorpus/pkg/checkpoint"
	"casecorpus/pkg/classify"
	"casecorpus/pkg/config"
	"casecorpus/pkg/crawl"
	"casecorpus/pkg/extract"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/metadata"
	"casecorpus/pkg/metrics"
	"casecorpus/pkg/models"
	"casecorpus/pkg/ratelimit"
	"casecorpus/pkg/storage"
	"casecorpus/pkg/ui"
)

// app is the per invocation state shared by the pipeline commands
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	printer *ui.Printer
	today   time.Time
}

var (
	stringFlags   = []string{"base-url", "raw-dir", "checkpoint", "corpus", "statistics", "log-level", "metrics-addr"}
	intFlags      = []string{"concurrency", "max-cases", "requests-per-minute"}
	durationFlags = []string{"timeout"}
)

func todayUTC() time.Time { return time.Now().UTC() }

// flagOverrides collects the flags the user actually set, keyed the way
// config.MergeCommandLineFlags expects
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range stringFlags {
		if fs.Changed(name) {
			if v, err := fs.GetString(name); err == nil {
				flags[name] = v
			}
		}
	}
	for _, name := range intFlags {
		if fs.Changed(name) {
			if v, err := fs.GetInt(name); err == nil {
				flags[name] = v
			}
		}
	}
	for _, name := range durationFlags {
		if fs.Changed(name) {
			if v, err := fs.GetDuration(name); err == nil {
				flags[name] = v
			}
		}
	}
	return flags
}

// setup loads configuration, initializes logging and starts the metrics
// server when enabled. The server stops with the command's context.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}

	logger.Version = version
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":  uuid.NewString(),
		"command": cmd.Name(),
	})

	a := &app{
		cfg:     cfg,
		log:     log,
		printer: ui.NewPrinter(os.Stdout, noColor),
		today:   todayUTC(),
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
		go func() {
			if err := a.metrics.Serve(cmd.Context(), cfg.Metrics.Address, log); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	return a, nil
}

// store opens the raw document store with its metadata sidecars
func (a *app) store() (*metadata.Store, error) {
	raw, err := storage.NewRawStore(a.cfg.Output.RawDirectory)
	if err != nil {
		return nil, err
	}
	return metadata.NewStore(raw), nil
}

func (a *app) crawl(ctx context.Context) (crawl.Summary, error) {
	windows, err := a.cfg.SearchWindows(a.today)
	if err != nil {
		return crawl.Summary{}, err
	}

	registry, err := checkpoint.Open(a.cfg.Output.CheckpointFile, a.log)
	if err != nil {
		return crawl.Summary{}, err
	}
	store, err := a.store()
	if err != nil {
		return crawl.Summary{}, err
	}

	limiter := ratelimit.NewPerMinute(a.cfg.RateLimit.RequestsPerMinute, a.cfg.RateLimit.BurstSize)
	crawler := crawl.New(crawl.Options{
		Windows:     windows,
		Search:      archive.NewSearch(a.cfg.Archive),
		Fetcher:     archive.NewClient(a.cfg, limiter, a.log),
		Registry:    registry,
		Store:       store,
		Concurrency: a.cfg.Fetch.Concurrency,
		MaxPages:    a.cfg.Fetch.MaxPages,
		Timeout:     a.cfg.Fetch.Timeout,
		Metrics:     a.metrics,
		Logger:      a.log,
	})
	return crawler.Run(ctx)
}

func (a *app) annotate(ctx context.Context, generationDate string) (annotate.Summary, error) {
	registry, err := checkpoint.Open(a.cfg.Output.CheckpointFile, a.log)
	if err != nil {
		return annotate.Summary{}, err
	}
	store, err := a.store()
	if err != nil {
		return annotate.Summary{}, err
	}

	var keep func(string) bool
	if len(a.cfg.Classifier.StatuteKeywords) > 0 {
		keep = classify.NewMatcher(a.cfg.Classifier.StatuteKeywords).Match
	}

	if generationDate == "" {
		generationDate = a.today.Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, generationDate); err != nil {
		return annotate.Summary{}, fmt.Errorf("invalid --date %q: %w", generationDate, err)
	}

	return annotate.New(annotate.Options{
		Entries:        registry,
		Documents:      store,
		Extractor:      extract.New(keep),
		Classifier:     classify.New(a.cfg.Classifier.CriminalKeywords),
		Workers:        a.cfg.Annotate.Workers,
		CorpusPath:     a.cfg.Output.CorpusFile,
		StatisticsPath: a.cfg.StatisticsPath(),
		GenerationDate: generationDate,
		Metrics:        a.metrics,
		Logger:         a.log,
	}).Run(ctx)
}

func (a *app) printCrawl(s crawl.Summary) {
	if quiet {
		return
	}
	a.printer.Summary("Crawl summary", []ui.Row{
		{Label: "Windows", Value: fmt.Sprintf("%d ok, %d failed", s.WindowsOK, s.WindowsFailed)},
		{Label: "Discovered", Value: strconv.Itoa(s.Discovered)},
		{Label: "Already recorded", Value: strconv.Itoa(s.Skipped)},
		{Label: "Fetched", Value: strconv.Itoa(s.Fetched)},
		{Label: "Failed", Value: strconv.Itoa(s.Failed)},
		{Label: "Stored documents", Value: strconv.Itoa(s.Stored)},
		{Label: "Checkpoint", Value: a.cfg.Output.CheckpointFile},
	})
	if s.WindowsFailed > 0 || s.Failed > 0 {
		a.printer.Warning("Some windows or cases failed; rerun to retry them")
	}
}

func (a *app) printAnnotate(s annotate.Summary) {
	if quiet {
		return
	}
	stats := s.Statistics
	a.printer.Summary("Corpus summary", []ui.Row{
		{Label: "Accepted", Value: ui.Bar(s.Accepted, s.Entries)},
		{Label: "Rejected", Value: strconv.Itoa(s.Rejected)},
		{Label: "Malformed", Value: strconv.Itoa(s.Malformed)},
		{Label: "Missing raw", Value: strconv.Itoa(s.Missing)},
		{Label: "Year range", Value: stats.CorpusOverview.YearRange},
		{Label: "Estimated tokens", Value: strconv.Itoa(stats.CorpusOverview.EstimatedTokens)},
		{Label: "Statutes", Value: fmt.Sprintf("%d (%.2f per case)", stats.LegalContent.TotalStatutes, stats.LegalContent.AverageStatutesPerCase)},
		{Label: "Corpus", Value: a.cfg.Output.CorpusFile},
		{Label: "Statistics", Value: a.cfg.StatisticsPath()},
	})
}
