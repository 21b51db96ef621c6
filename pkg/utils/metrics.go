package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector wraps a dedicated prometheus registry so concurrent
// audits share one set of collectors without touching the global registry.
type MetricsCollector struct {
	registry *prometheus.Registry
	mu       sync.Mutex

	FetchAttempts   *prometheus.CounterVec
	FetchFailures   *prometheus.CounterVec
	CrawlPages      prometheus.Counter
	LookupResults   *prometheus.CounterVec
	AuditDuration   prometheus.Histogram
	AuditsCompleted *prometheus.CounterVec
}

func NewMetricsCollector(enableRuntimeMetrics bool) *MetricsCollector {
	reg := prometheus.NewRegistry()

	if enableRuntimeMetrics {
		_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		_ = reg.Register(collectors.NewGoCollector())
	}

	m := &MetricsCollector{
		registry: reg,
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_fetch_attempts_total",
			Help: "Fetch attempts by strategy.",
		}, []string{"strategy"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_fetch_failures_total",
			Help: "Classified fetch failures by error kind.",
		}, []string{"kind"}),
		CrawlPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustlens_crawl_pages_total",
			Help: "Secondary pages visited by the deep crawl.",
		}),
		LookupResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_evidence_lookups_total",
			Help: "External evidence lookups by category and outcome.",
		}, []string{"category", "outcome"}),
		AuditDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustlens_audit_duration_seconds",
			Help:    "End-to-end audit duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		AuditsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_audits_total",
			Help: "Completed audits by risk tier.",
		}, []string{"tier"}),
	}

	reg.MustRegister(
		m.FetchAttempts,
		m.FetchFailures,
		m.CrawlPages,
		m.LookupResults,
		m.AuditDuration,
		m.AuditsCompleted,
	)
	return m
}

func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAudit records one finished audit.
func (m *MetricsCollector) ObserveAudit(tier string, d time.Duration) {
	m.AuditDuration.Observe(d.Seconds())
	m.AuditsCompleted.WithLabelValues(tier).Inc()
}
