package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry wires this module's counters and histograms into a
// dedicated Prometheus registry, so a host embedding this module
// doesn't collide with its own default-registry metrics.
//
// Grounded on _examples/Debanitrkl-test-infra/ghproxy/ghcache/
// ghcache.go's prometheus instrumentation (package-level
// Gauge/CounterVec definitions registered via MustRegister), adapted
// from global vars + the default registry into an instance the host
// constructs explicitly.
type Registry struct {
	reg *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	sectionsTotal   *prometheus.CounterVec
	dependencyTotal *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec

	shellLatency      prometheus.Histogram
	sectionLatency    *prometheus.HistogramVec
	dependencyLatency *prometheus.HistogramVec
}

// NewRegistry builds and registers every metric this module exports.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_requests_total",
			Help: "Total requests handled, labeled by outcome.",
		}, []string{"outcome"}),
		sectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_sections_total",
			Help: "Total sections rendered, labeled by outcome and section name.",
		}, []string{"section", "outcome"}),
		dependencyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_dependency_fetches_total",
			Help: "Total dependency fetches, labeled by tag and outcome.",
		}, []string{"tag", "outcome"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corestream_fragment_cache_total",
			Help: "Fragment cache lookups, labeled by status.",
		}, []string{"status"}),
		shellLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "corestream_shell_latency_seconds",
			Help:    "Time to shell sent.",
			Buckets: prometheus.DefBuckets,
		}),
		sectionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corestream_section_latency_seconds",
			Help:    "Section render latency, labeled by section name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"section"}),
		dependencyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corestream_dependency_latency_seconds",
			Help:    "Dependency fetch latency, labeled by tag.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tag"}),
	}

	reg.MustRegister(
		r.requestsTotal,
		r.sectionsTotal,
		r.dependencyTotal,
		r.cacheTotal,
		r.shellLatency,
		r.sectionLatency,
		r.dependencyLatency,
	)

	return r
}

// Gatherer exposes the underlying registry for an HTTP /metrics
// handler (e.g. promhttp.HandlerFor(reg.Gatherer(), ...)).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveRequest(outcome string) {
	r.requestsTotal.WithLabelValues(outcome).Inc()
}

func (r *Registry) ObserveSection(section, outcome string) {
	r.sectionsTotal.WithLabelValues(section, outcome).Inc()
}

func (r *Registry) ObserveDependencyFetch(tag, outcome string, d time.Duration) {
	r.dependencyTotal.WithLabelValues(tag, outcome).Inc()
	r.dependencyLatency.WithLabelValues(tag).Observe(d.Seconds())
}

func (r *Registry) ObserveCacheLookup(status string) {
	r.cacheTotal.WithLabelValues(status).Inc()
}

func (r *Registry) ObserveShellLatency(d time.Duration) {
	r.shellLatency.Observe(d.Seconds())
}

func (r *Registry) ObserveSectionLatency(section string, d time.Duration) {
	r.sectionLatency.WithLabelValues(section).Observe(d.Seconds())
}
