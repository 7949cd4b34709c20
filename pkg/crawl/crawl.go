package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"casecorpus/internal/fetchpool"
	"casecorpus/pkg/archive"
	cerrors "casecorpus/pkg/errors"
	"casecorpus/pkg/extract"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/metrics"
	"casecorpus/pkg/models"
)

// Registry is the checkpoint view the crawler needs
type Registry interface {
	Has(url string) bool
	fetchpool.Registry
}

// Store is the raw document store the crawler writes to
type Store interface {
	fetchpool.DocumentStore
	// Has reports whether a document for the url is stored
	Has(url string) bool
	// Count returns the number of stored documents
	Count() int
}

// Options configures a Crawler
type Options struct {
	Windows     []models.SearchWindow
	Search      archive.Search
	Fetcher     archive.Fetcher
	Registry    Registry
	Store       Store
	Concurrency int
	// MaxPages bounds result pages per window. Zero means no bound.
	MaxPages int
	Timeout  time.Duration
	Metrics  *metrics.Metrics
	Logger   logger.Logger
}

// Summary totals a crawl
type Summary struct {
	WindowsOK     int
	WindowsFailed int
	Discovered    int
	Skipped       int
	Fetched       int
	Failed        int
	// Stored is the number of raw documents on disk when the crawl ended
	Stored int
}

func (s *Summary) add(o Summary) {
	s.Discovered += o.Discovered
	s.Skipped += o.Skipped
	s.Fetched += o.Fetched
	s.Failed += o.Failed
}

// Crawler walks the configured search windows, fetching and recording every
// case link the registry does not know yet.
type Crawler struct {
	opts   Options
	logger logger.Logger
}

// New creates a Crawler
func New(opts Options) *Crawler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Crawler{opts: opts, logger: opts.Logger.WithField("component", "crawl")}
}

// Run crawls every window in order and closes the Fetcher before returning.
// A failed window is logged and skipped. Only cancellation stops the run early.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	defer func() {
		if err := c.opts.Fetcher.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close fetcher")
		}
	}()

	logger.LogComponentStart(c.logger, "crawl", map[string]interface{}{
		"windows":     len(c.opts.Windows),
		"concurrency": c.opts.Concurrency,
		"max_pages":   c.opts.MaxPages,
	})

	var total Summary
	for _, w := range c.opts.Windows {
		if err := ctx.Err(); err != nil {
			total.Stored = c.opts.Store.Count()
			return total, err
		}

		ws, err := c.CrawlWindow(ctx, w)
		total.add(ws)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				total.Stored = c.opts.Store.Count()
				return total, ctxErr
			}
			total.WindowsFailed++
			c.opts.Metrics.WindowDone(metrics.OutcomeFailed)
			c.logger.WithError(err).ErrorWithFields("Window failed, moving on", map[string]interface{}{
				"window": w.String(),
			})
			continue
		}
		total.WindowsOK++
		c.opts.Metrics.WindowDone(metrics.OutcomeOK)
	}

	total.Stored = c.opts.Store.Count()
	c.logger.InfoWithFields("Crawl finished", map[string]interface{}{
		"windows_ok":     total.WindowsOK,
		"windows_failed": total.WindowsFailed,
		"discovered":     total.Discovered,
		"skipped":        total.Skipped,
		"fetched":        total.Fetched,
		"failed":         total.Failed,
		"stored":         total.Stored,
	})
	logger.LogComponentStop(c.logger, "crawl", "completed")
	return total, ctx.Err()
}

// CrawlWindow discovers the window's links and fetches the unseen ones. An
// error means the window's result pages could not be navigated; individual
// case failures are counted, not returned.
func (c *Crawler) CrawlWindow(ctx context.Context, w models.SearchWindow) (Summary, error) {
	log := c.logger.WithField("window", w.String())
	log.Info("Window started")

	fresh, ws, err := c.discover(ctx, w, log)
	if err != nil {
		return ws, err
	}

	fetched := c.fetchAll(ctx, fresh, log)
	ws.add(fetched)

	log.InfoWithFields("Window finished", map[string]interface{}{
		"discovered": ws.Discovered,
		"skipped":    ws.Skipped,
		"fetched":    ws.Fetched,
		"failed":     ws.Failed,
	})
	return ws, ctx.Err()
}

// discover pages through the window's results and returns the links not yet
// recorded, up to the window's case limit.
func (c *Crawler) discover(ctx context.Context, w models.SearchWindow, log logger.Logger) ([]models.LinkRecord, Summary, error) {
	var ws Summary
	var fresh []models.LinkRecord
	seen := make(map[string]bool)

	for page := 1; c.opts.MaxPages <= 0 || page <= c.opts.MaxPages; page++ {
		pageURL := c.opts.Search.URL(w, page)
		links, err := c.searchPage(ctx, pageURL, w)
		if err != nil {
			return nil, ws, fmt.Errorf("result page %d: %w", page, err)
		}
		if len(links) == 0 {
			if page == 1 {
				return nil, ws, archive.ErrNoResults
			}
			break
		}

		added := 0
		for _, link := range links {
			if seen[link.SourceURL] {
				continue
			}
			seen[link.SourceURL] = true
			added++
			ws.Discovered++
			c.opts.Metrics.Discovered(1)

			if c.opts.Registry.Has(link.SourceURL) {
				ws.Skipped++
				c.opts.Metrics.Skipped()
				if !c.opts.Store.Has(link.SourceURL) {
					log.WarnWithFields("Recorded case has no stored document", map[string]interface{}{
						"url": link.SourceURL,
					})
					continue
				}
				log.DebugWithFields("Skipping recorded case", map[string]interface{}{
					"url": link.SourceURL,
				})
				continue
			}

			fresh = append(fresh, link)
			if w.MaxCases > 0 && len(fresh) >= w.MaxCases {
				log.InfoWithFields("Window case limit reached", map[string]interface{}{
					"max_cases": w.MaxCases,
				})
				return fresh, ws, nil
			}
		}

		// the archive repeats its last page past the end
		if added == 0 {
			break
		}
		log.DebugWithFields("Result page parsed", map[string]interface{}{
			"page":  page,
			"links": len(links),
			"new":   added,
		})
	}

	return fresh, ws, nil
}

func (c *Crawler) searchPage(ctx context.Context, pageURL string, w models.SearchWindow) ([]models.LinkRecord, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	content, err := c.opts.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return c.opts.Search.ParseResults(content, pageURL, w)
}

// fetchAll runs links through a worker pool and tallies the results
func (c *Crawler) fetchAll(ctx context.Context, links []models.LinkRecord, log logger.Logger) Summary {
	var ws Summary
	if len(links) == 0 {
		return ws
	}

	pool := fetchpool.New(ctx, fetchpool.Options{
		Workers:  c.opts.Concurrency,
		Timeout:  c.opts.Timeout,
		Fetcher:  c.opts.Fetcher,
		Store:    c.opts.Store,
		Registry: c.opts.Registry,
		Identify: extract.CaseIdentifier,
		Logger:   log,
	})
	pool.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer pool.Stop()
		for _, link := range links {
			if err := pool.Submit(fetchpool.Job{Link: link}); err != nil {
				log.WithError(err).Warn("Stopped queueing cases")
				return
			}
		}
	}()

	for result := range pool.Results() {
		url := result.Job.Link.SourceURL
		switch {
		case result.Skipped:
			ws.Skipped++
			c.opts.Metrics.Skipped()
			log.DebugWithFields("Skipping recorded case", map[string]interface{}{"url": url})

		case result.Error != nil:
			ws.Failed++
			c.opts.Metrics.Fetched(metrics.OutcomeFailed, result.Duration)
			if errors.Is(result.Error, context.Canceled) {
				continue
			}
			log.WithError(result.Error).WarnWithFields("Case left for the next run", map[string]interface{}{
				"url":       url,
				"retryable": cerrors.Retryable(result.Error),
			})

		default:
			ws.Fetched++
			c.opts.Metrics.Fetched(metrics.OutcomeOK, result.Duration)
			log.InfoWithFields("Case fetched", map[string]interface{}{
				"url":         url,
				"case_number": result.Entry.CaseNumber,
				"seq":         result.Entry.Seq,
				"bytes":       result.Size,
			})
		}
	}

	wg.Wait()
	return ws
}
