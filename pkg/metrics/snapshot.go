// Package metrics aggregates per-request, per-section, and
// per-dependency timing and outcome counters into point-in-time
// snapshots, with percentile summaries and Prometheus export.
//
// Directly adapted from the teacher's pkg/models/metrics.go
// (MetricSnapshot/LatencySummary/percentile calculation), re-keyed
// from cache hit/miss/eviction counters onto this module's
// request/section/dependency outcome counters.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MetricSnapshot is a point-in-time summary of request handling:
// shell/section outcomes plus dependency fetch outcomes.
type MetricSnapshot struct {
	Timestamp time.Time

	RequestsTotal     uint64
	RequestsErrored   uint64
	SectionsRendered  uint64
	SectionsFellBack  uint64
	SectionsSkipped   uint64

	DependencyFetches uint64
	DependencyErrors  uint64
	CacheHits         uint64
	CacheMisses       uint64

	ShellLatency      LatencySummary
	SectionLatency    LatencySummary
	DependencyLatency LatencySummary

	CacheHitRate float64
}

// LatencySummary is a statistical summary of a set of latency
// samples. Thread safety is the caller's responsibility, matching the
// teacher's own convention for this type.
type LatencySummary struct {
	Count uint64
	Sum   time.Duration
	Min   time.Duration
	Max   time.Duration
	P50   time.Duration
	P90   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// NewMetricSnapshot assembles a snapshot from raw counters, computing
// the derived cache hit rate.
func NewMetricSnapshot(requestsTotal, requestsErrored, sectionsRendered, sectionsFellBack, sectionsSkipped,
	depFetches, depErrors, cacheHits, cacheMisses uint64,
	shellLatency, sectionLatency, depLatency LatencySummary) MetricSnapshot {

	hitRate := 0.0
	if total := cacheHits + cacheMisses; total > 0 {
		hitRate = float64(cacheHits) / float64(total)
	}

	return MetricSnapshot{
		Timestamp:         time.Now(),
		RequestsTotal:     requestsTotal,
		RequestsErrored:   requestsErrored,
		SectionsRendered:  sectionsRendered,
		SectionsFellBack:  sectionsFellBack,
		SectionsSkipped:   sectionsSkipped,
		DependencyFetches: depFetches,
		DependencyErrors:  depErrors,
		CacheHits:         cacheHits,
		CacheMisses:       cacheMisses,
		ShellLatency:      shellLatency,
		SectionLatency:    sectionLatency,
		DependencyLatency: depLatency,
		CacheHitRate:      hitRate,
	}
}

// ErrorRate returns the fraction of requests that errored.
func (m *MetricSnapshot) ErrorRate() float64 {
	if m.RequestsTotal == 0 {
		return 0
	}
	return float64(m.RequestsErrored) / float64(m.RequestsTotal)
}

// FallbackRate returns the fraction of rendered sections that used a
// fallback instead of a live render.
func (m *MetricSnapshot) FallbackRate() float64 {
	total := m.SectionsRendered + m.SectionsFellBack
	if total == 0 {
		return 0
	}
	return float64(m.SectionsFellBack) / float64(total)
}

// MergeSnapshots combines two snapshots, summing counters and merging
// latency summaries via a count-weighted percentile approximation.
func MergeSnapshots(a, b MetricSnapshot) MetricSnapshot {
	return NewMetricSnapshot(
		a.RequestsTotal+b.RequestsTotal,
		a.RequestsErrored+b.RequestsErrored,
		a.SectionsRendered+b.SectionsRendered,
		a.SectionsFellBack+b.SectionsFellBack,
		a.SectionsSkipped+b.SectionsSkipped,
		a.DependencyFetches+b.DependencyFetches,
		a.DependencyErrors+b.DependencyErrors,
		a.CacheHits+b.CacheHits,
		a.CacheMisses+b.CacheMisses,
		MergeLatencySummaries(a.ShellLatency, b.ShellLatency),
		MergeLatencySummaries(a.SectionLatency, b.SectionLatency),
		MergeLatencySummaries(a.DependencyLatency, b.DependencyLatency),
	)
}

// MergeLatencySummaries combines two latency summaries. Percentiles
// are approximated by a sample-count-weighted average; exact
// percentiles require the original samples.
func MergeLatencySummaries(a, b LatencySummary) LatencySummary {
	if a.Count == 0 {
		return b
	}
	if b.Count == 0 {
		return a
	}

	total := a.Count + b.Count
	wa := float64(a.Count) / float64(total)
	wb := float64(b.Count) / float64(total)

	return LatencySummary{
		Count: total,
		Sum:   a.Sum + b.Sum,
		Min:   minDuration(a.Min, b.Min),
		Max:   maxDuration(a.Max, b.Max),
		P50:   time.Duration(float64(a.P50)*wa + float64(b.P50)*wb),
		P90:   time.Duration(float64(a.P90)*wa + float64(b.P90)*wb),
		P95:   time.Duration(float64(a.P95)*wa + float64(b.P95)*wb),
		P99:   time.Duration(float64(a.P99)*wa + float64(b.P99)*wb),
	}
}

// UpdateLatency folds sample into summary, updating only Count/Sum/
// Min/Max. Percentiles require CalculateLatencySummary over the raw
// samples.
func UpdateLatency(summary *LatencySummary, sample time.Duration) {
	if summary.Count == 0 {
		summary.Min = sample
		summary.Max = sample
	} else {
		if sample < summary.Min {
			summary.Min = sample
		}
		if sample > summary.Max {
			summary.Max = sample
		}
	}
	summary.Count++
	summary.Sum += sample
}

// CalculateLatencySummary computes an exact latency summary,
// including percentiles, from raw samples.
func CalculateLatencySummary(samples []time.Duration) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, s := range sorted {
		sum += s
	}

	return LatencySummary{
		Count: uint64(len(sorted)),
		Sum:   sum,
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   percentileDuration(sorted, 0.50),
		P90:   percentileDuration(sorted, 0.90),
		P95:   percentileDuration(sorted, 0.95),
		P99:   percentileDuration(sorted, 0.99),
	}
}

// AvgLatency returns the mean latency, or zero if no samples were
// recorded.
func (ls *LatencySummary) AvgLatency() time.Duration {
	if ls.Count == 0 {
		return 0
	}
	return ls.Sum / time.Duration(ls.Count)
}

// SnapshotToPrometheusFormat flattens a snapshot into a
// metric-name → value map suitable for simple text-format export,
// kept alongside the richer Registry for hosts that just want a flat
// map.
func SnapshotToPrometheusFormat(snapshot MetricSnapshot, prefix string) map[string]float64 {
	out := make(map[string]float64)

	out[fmt.Sprintf("%s_requests_total", prefix)] = float64(snapshot.RequestsTotal)
	out[fmt.Sprintf("%s_requests_errored_total", prefix)] = float64(snapshot.RequestsErrored)
	out[fmt.Sprintf("%s_sections_rendered_total", prefix)] = float64(snapshot.SectionsRendered)
	out[fmt.Sprintf("%s_sections_fellback_total", prefix)] = float64(snapshot.SectionsFellBack)
	out[fmt.Sprintf("%s_sections_skipped_total", prefix)] = float64(snapshot.SectionsSkipped)
	out[fmt.Sprintf("%s_dependency_fetches_total", prefix)] = float64(snapshot.DependencyFetches)
	out[fmt.Sprintf("%s_dependency_errors_total", prefix)] = float64(snapshot.DependencyErrors)
	out[fmt.Sprintf("%s_cache_hits_total", prefix)] = float64(snapshot.CacheHits)
	out[fmt.Sprintf("%s_cache_misses_total", prefix)] = float64(snapshot.CacheMisses)
	out[fmt.Sprintf("%s_cache_hit_rate", prefix)] = snapshot.CacheHitRate

	out[fmt.Sprintf("%s_shell_latency_avg_ms", prefix)] = float64(snapshot.ShellLatency.AvgLatency().Milliseconds())
	out[fmt.Sprintf("%s_shell_latency_p95_ms", prefix)] = float64(snapshot.ShellLatency.P95.Milliseconds())
	out[fmt.Sprintf("%s_section_latency_avg_ms", prefix)] = float64(snapshot.SectionLatency.AvgLatency().Milliseconds())
	out[fmt.Sprintf("%s_section_latency_p95_ms", prefix)] = float64(snapshot.SectionLatency.P95.Milliseconds())
	out[fmt.Sprintf("%s_dependency_latency_avg_ms", prefix)] = float64(snapshot.DependencyLatency.AvgLatency().Milliseconds())
	out[fmt.Sprintf("%s_dependency_latency_p95_ms", prefix)] = float64(snapshot.DependencyLatency.P95.Milliseconds())

	return out
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func percentileDuration(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	index := p * float64(len(samples)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return samples[lower]
	}

	weight := index - float64(lower)
	return time.Duration(float64(samples[lower])*(1-weight) + float64(samples[upper])*weight)
}
