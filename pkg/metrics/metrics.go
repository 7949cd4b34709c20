// Package metrics exposes crawl and annotation counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"casecorpus/pkg/logger"
)

// Outcome label values
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeAccepted  = "accepted"
	OutcomeMalformed = "malformed"
	OutcomeMissing   = "missing"
)

// Metrics holds the collectors on a private registry so tests and multiple
// runs in one process do not collide. A nil *Metrics discards everything.
type Metrics struct {
	registry *prometheus.Registry

	Windows         *prometheus.CounterVec
	LinksDiscovered prometheus.Counter
	LinksSkipped    prometheus.Counter
	Fetches         *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	Records         *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Windows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casecorpus_windows_total",
				Help: "Search windows processed, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		LinksDiscovered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casecorpus_links_discovered_total",
				Help: "Case links found on search result pages.",
			},
		),
		LinksSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casecorpus_links_skipped_total",
				Help: "Discovered links skipped because they are already recorded.",
			},
		),
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casecorpus_fetches_total",
				Help: "Case document fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "casecorpus_fetch_duration_seconds",
				Help:    "Duration of case document fetches in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casecorpus_records_total",
				Help: "Registry entries annotated, labeled by outcome or rejection reason.",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(m.Windows, m.LinksDiscovered, m.LinksSkipped, m.Fetches, m.FetchDuration, m.Records)
	return m
}

// WindowDone counts a finished window
func (m *Metrics) WindowDone(outcome string) {
	if m == nil {
		return
	}
	m.Windows.WithLabelValues(outcome).Inc()
}

// Discovered counts links found on result pages
func (m *Metrics) Discovered(n int) {
	if m == nil {
		return
	}
	m.LinksDiscovered.Add(float64(n))
}

// Skipped counts a link that was already recorded
func (m *Metrics) Skipped() {
	if m == nil {
		return
	}
	m.LinksSkipped.Inc()
}

// Fetched counts a case fetch and observes its duration
func (m *Metrics) Fetched(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// Annotated counts one annotation outcome
func (m *Metrics) Annotated(outcome string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("address", addr).Info("Exposing Prometheus metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
