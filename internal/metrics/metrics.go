// Package metrics exposes Prometheus collectors for a single scraper run.
package metrics

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry so each run reports only its own numbers.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	records      *prometheus.CounterVec
	rejected     prometheus.Counter
	batches      prometheus.Counter
	batchBytes   prometheus.Counter
	flushErrors  prometheus.Counter
	terminations *prometheus.CounterVec
}

// New registers the scraper collectors on a fresh registry.
func New(job string) *Recorder {
	labels := prometheus.Labels{"job": job}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_records_total",
			Help:        "Records accepted by the node, labeled by site.",
			ConstLabels: labels,
		}, []string{"site"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "scraper_records_rejected_total",
			Help:        "Records refused because the row quota was already used up.",
			ConstLabels: labels,
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "scraper_batches_total",
			Help:        "Batch files committed to the output folder.",
			ConstLabels: labels,
		}),
		batchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "scraper_batch_bytes_total",
			Help:        "Bytes of batch payload written.",
			ConstLabels: labels,
		}),
		flushErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "scraper_flush_errors_total",
			Help:        "Batches lost because writing them failed.",
			ConstLabels: labels,
		}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_terminations_total",
			Help:        "Job terminations, labeled by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
	}
	r.registry.MustRegister(
		r.records, r.rejected, r.batches, r.batchBytes, r.flushErrors, r.terminations,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRecord counts an accepted record.
func (r *Recorder) ObserveRecord(rawURL string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveRejected counts a record refused by the quota.
func (r *Recorder) ObserveRejected() {
	if r == nil {
		return
	}
	r.rejected.Inc()
}

// ObserveBatch counts a committed batch file.
func (r *Recorder) ObserveBatch(_ int, bytes int) {
	if r == nil {
		return
	}
	r.batches.Inc()
	r.batchBytes.Add(float64(bytes))
}

// ObserveFlushError counts a batch that could not be written.
func (r *Recorder) ObserveFlushError() {
	if r == nil {
		return
	}
	r.flushErrors.Inc()
}

// ObserveTermination counts how the run ended.
func (r *Recorder) ObserveTermination(reason string) {
	if r == nil {
		return
	}
	r.terminations.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
