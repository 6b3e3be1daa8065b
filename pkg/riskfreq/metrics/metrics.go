// Package metrics collects run counters for a batch of filings. A run has no
// scrape endpoint, so the registry is written to a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/riskfreq/pkg/riskfreq/ingest"
)

// Metrics holds the collectors for one run. Each instance has its own registry.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal   *prometheus.CounterVec
	TokensTotal      *prometheus.CounterVec
	SectionLines     prometheus.Counter
	FalsePositives   prometheus.Counter
	FetchErrorsTotal prometheus.Counter
	DocumentDuration prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskfreq_documents_total",
				Help: "Documents processed by section status (not_found, terminated, unterminated).",
			},
			[]string{"status"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskfreq_tokens_total",
				Help: "Section tokens by filter verdict.",
			},
			[]string{"verdict"},
		),
		SectionLines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riskfreq_section_lines_total",
				Help: "Content lines counted inside sections.",
			},
		),
		FalsePositives: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riskfreq_heading_false_positives_total",
				Help: "Heading matches rejected as table of contents entries.",
			},
		),
		FetchErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riskfreq_fetch_errors_total",
				Help: "Filings that could not be fetched.",
			},
		),
		DocumentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "riskfreq_document_duration_seconds",
				Help:    "Time to scan and rank one document.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
	}

	m.registry.MustRegister(
		m.DocumentsTotal,
		m.TokensTotal,
		m.SectionLines,
		m.FalsePositives,
		m.FetchErrorsTotal,
		m.DocumentDuration,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveToken implements ingest.Observer.
func (m *Metrics) ObserveToken(_ string, v ingest.Verdict) {
	m.TokensTotal.WithLabelValues(v.String()).Inc()
}

// ObserveDocument records one processed document.
func (m *Metrics) ObserveDocument(doc ingest.ProcessedDoc, elapsed time.Duration) {
	m.DocumentsTotal.WithLabelValues(doc.Status.String()).Inc()
	m.SectionLines.Add(float64(doc.SectionLines))
	m.FalsePositives.Add(float64(doc.FalsePositives))
	m.DocumentDuration.Observe(elapsed.Seconds())
}

// FetchFailed records a filing that could not be fetched.
func (m *Metrics) FetchFailed() {
	m.FetchErrorsTotal.Inc()
}

// WriteTextfile writes the registry in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
