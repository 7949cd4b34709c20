package fetchpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cerrors "casecorpus/pkg/errors"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/models"
)

// Job is a single case link to fetch
type Job struct {
	Link models.LinkRecord
}

// Result is the outcome of a Job. Skipped is set when the link was already
// recorded or claimed by another worker; nothing was fetched in that case.
type Result struct {
	Job      Job
	Entry    models.CheckpointEntry
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// Success reports whether the job produced a new registry entry
func (r Result) Success() bool {
	return r.Error == nil && !r.Skipped
}

// Fetcher retrieves a document by URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DocumentStore persists raw documents
type DocumentStore interface {
	Put(doc models.RawDocument) error
}

// Registry is the checkpoint a worker claims links in and records them to
type Registry interface {
	Claim(url string) bool
	Release(url string)
	Record(link models.LinkRecord) (models.CheckpointEntry, error)
}

// Options configures a WorkerPool
type Options struct {
	Workers  int
	Timeout  time.Duration
	Fetcher  Fetcher
	Store    DocumentStore
	Registry Registry
	// Identify reads a case identifier from fetched content when the link
	// carries none. Optional.
	Identify func(content []byte) string
	Logger   logger.Logger
}

// WorkerPool fetches, stores and records case links with a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	timeout     time.Duration
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     Fetcher
	store       DocumentStore
	registry    Registry
	identify    func([]byte) string
	now         func() time.Time
	logger      logger.Logger
}

// New creates a worker pool bound to ctx. Cancelling ctx stops the workers
// after their current job.
func New(ctx context.Context, opts Options) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  opts.Workers,
		timeout:     opts.Timeout,
		jobQueue:    make(chan Job, opts.Workers*2),
		resultQueue: make(chan Result, opts.Workers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		registry:    opts.Registry,
		identify:    opts.Identify,
		now:         time.Now,
		logger:      opts.Logger,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs and closes Results.
// Callers must keep draining Results until it is closed.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job. It fails once the pool's context is cancelled.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel results are delivered on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			continue
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob claims the link, fetches and stores it, then records it. Any
// failure releases the claim so a later run tries the link again.
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	link := job.Link
	result := Result{Job: job}

	if !wp.registry.Claim(link.SourceURL) {
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	fail := func(err error) Result {
		wp.registry.Release(link.SourceURL)
		result.Error = err
		result.Duration = time.Since(start)
		wp.logger.WithError(err).WarnWithFields("Case fetch failed", map[string]interface{}{
			"worker_id": workerID,
			"url":       link.SourceURL,
			"duration":  result.Duration,
		})
		return result
	}

	fetchCtx := wp.ctx
	if wp.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(wp.ctx, wp.timeout)
		defer cancel()
	}

	content, err := wp.fetcher.Fetch(fetchCtx, link.SourceURL)
	if err != nil {
		if !cerrors.IsFetchFailure(err) {
			err = cerrors.NewFetchFailure("fetch", link.SourceURL, err)
		}
		return fail(err)
	}
	result.Size = len(content)

	if link.CaseNumber == "" && wp.identify != nil {
		link.CaseNumber = wp.identify(content)
	}

	if err := wp.store.Put(models.RawDocument{Link: link, Content: content, FetchedAt: wp.now().UTC()}); err != nil {
		return fail(err)
	}

	entry, err := wp.registry.Record(link)
	if errors.Is(err, cerrors.ErrAlreadyRecorded) {
		result.Skipped = true
		result.Entry = entry
		result.Duration = time.Since(start)
		return result
	}
	if err != nil {
		return fail(err)
	}

	result.Entry = entry
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Case recorded", map[string]interface{}{
		"worker_id":   workerID,
		"url":         link.SourceURL,
		"case_number": entry.CaseNumber,
		"seq":         entry.Seq,
		"size":        result.Size,
		"duration":    result.Duration,
	})
	return result
}
