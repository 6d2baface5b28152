// Package telemetry provides the in-process metric registry and structured
// log emission for fredmcp. Metrics are Prometheus collectors on an injectable
// registry (never the package-global default) so tests can build fresh
// instances. Snapshot() serializes the registry for the system_health tool,
// approximating histogram percentiles from cumulative bucket counts.
package telemetry

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// DurationBuckets are the fixed histogram buckets, in milliseconds.
var DurationBuckets = []float64{50, 100, 250, 500, 1000, 2500}

// Registry owns every fredmcp metric instrument.
type Registry struct {
	reg *prometheus.Registry

	requestsTotal   *prometheus.CounterVec // fred_requests_total{tool,status}
	cacheHits       *prometheus.CounterVec // cache_hits_total{namespace}
	cacheMisses     *prometheus.CounterVec // cache_misses_total{namespace}
	rateLimitBlocks prometheus.Counter     // rate_limit_blocks_total
	retriesTotal    *prometheus.CounterVec // retries_total{tool}

	cacheSize      *prometheus.GaugeVec // cache_size{namespace}
	limiterPenalty prometheus.Gauge     // limiter_active_penalty_ms

	requestDuration *prometheus.HistogramVec // fred_request_duration_ms{tool}
	cacheOpDuration *prometheus.HistogramVec // cache_op_duration_ms{namespace}
}

// New creates a Registry with all required instruments registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fred_requests_total",
			Help: "Total FRED tool invocations by tool name and outcome",
		}, []string{"tool", "status"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits by namespace",
		}, []string{"namespace"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses by namespace",
		}, []string{"namespace"}),
		rateLimitBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_blocks_total",
			Help: "Total acquisitions that had to wait for a limiter slot",
		}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retries_total",
			Help: "Total HTTP retries by tool name",
		}, []string{"tool"}),
		cacheSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Current number of cache entries by namespace",
		}, []string{"namespace"}),
		limiterPenalty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "limiter_active_penalty_ms",
			Help: "Active 429 penalty in milliseconds",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fred_request_duration_ms",
			Help:    "FRED request duration in milliseconds",
			Buckets: DurationBuckets,
		}, []string{"tool"}),
		cacheOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cache_op_duration_ms",
			Help:    "Cache operation duration in milliseconds",
			Buckets: DurationBuckets,
		}, []string{"namespace"}),
	}
	r.reg.MustRegister(
		r.requestsTotal, r.cacheHits, r.cacheMisses, r.rateLimitBlocks,
		r.retriesTotal, r.cacheSize, r.limiterPenalty,
		r.requestDuration, r.cacheOpDuration,
	)
	return r
}

// ─── Instrument helpers ───────────────────────────────────────────────────────

// RecordRequest increments fred_requests_total for the given tool and outcome
// (e.g. "ok", "error", "cached", "cancelled").
func (r *Registry) RecordRequest(tool, status string) {
	r.requestsTotal.WithLabelValues(tool, status).Inc()
}

// CacheHit increments cache_hits_total for namespace.
func (r *Registry) CacheHit(namespace string) {
	r.cacheHits.WithLabelValues(namespace).Inc()
}

// CacheMiss increments cache_misses_total for namespace.
func (r *Registry) CacheMiss(namespace string) {
	r.cacheMisses.WithLabelValues(namespace).Inc()
}

// RateLimitBlocked increments rate_limit_blocks_total.
func (r *Registry) RateLimitBlocked() {
	r.rateLimitBlocks.Inc()
}

// Retry increments retries_total for tool.
func (r *Registry) Retry(tool string) {
	r.retriesTotal.WithLabelValues(tool).Inc()
}

// SetCacheSize sets the cache_size gauge for namespace.
func (r *Registry) SetCacheSize(namespace string, n int) {
	r.cacheSize.WithLabelValues(namespace).Set(float64(n))
}

// SetPenalty sets limiter_active_penalty_ms.
func (r *Registry) SetPenalty(ms int64) {
	r.limiterPenalty.Set(float64(ms))
}

// ObserveRequestDuration records a FRED request duration for tool.
func (r *Registry) ObserveRequestDuration(tool string, ms float64) {
	r.requestDuration.WithLabelValues(tool).Observe(ms)
}

// ObserveCacheOp records a cache operation duration for namespace.
func (r *Registry) ObserveCacheOp(namespace string, ms float64) {
	r.cacheOpDuration.WithLabelValues(namespace).Observe(ms)
}

// ─── Snapshot ─────────────────────────────────────────────────────────────────

// HistogramSummary is the serialized view of one histogram series.
type HistogramSummary struct {
	Count uint64  `json:"count"`
	Sum   float64 `json:"sum"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Snapshot holds the JSON-ready state of every registered instrument.
// Counter and gauge keys are "name" or "name{label=value,...}".
type Snapshot struct {
	Counters   map[string]float64          `json:"counters"`
	Gauges     map[string]float64          `json:"gauges"`
	Histograms map[string]HistogramSummary `json:"histograms"`
}

// Snapshot gathers the registry without mutating state.
func (r *Registry) Snapshot() (*Snapshot, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	snap := &Snapshot{
		Counters:   map[string]float64{},
		Gauges:     map[string]float64{},
		Histograms: map[string]HistogramSummary{},
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			key := seriesKey(fam.GetName(), m)
			switch fam.GetType() {
			case dto.MetricType_COUNTER:
				snap.Counters[key] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				snap.Gauges[key] = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				snap.Histograms[key] = HistogramSummary{
					Count: h.GetSampleCount(),
					Sum:   h.GetSampleSum(),
					P50:   bucketQuantile(h, 0.50),
					P95:   bucketQuantile(h, 0.95),
					P99:   bucketQuantile(h, 0.99),
				}
			}
		}
	}
	return snap, nil
}

// seriesKey renders "name{l1=v1,l2=v2}" with labels sorted by name.
func seriesKey(name string, m *dto.Metric) string {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, len(labels))
	for i, lp := range labels {
		parts[i] = lp.GetName() + "=" + lp.GetValue()
	}
	sort.Strings(parts)
	return name + "{" + strings.Join(parts, ",") + "}"
}

// bucketQuantile approximates a quantile by linear interpolation within the
// first cumulative bucket that covers the target rank. Values beyond the
// largest finite bucket report that bucket's upper bound.
func bucketQuantile(h *dto.Histogram, q float64) float64 {
	total := h.GetSampleCount()
	if total == 0 {
		return 0
	}
	rank := q * float64(total)
	var prevBound float64
	var prevCum uint64
	for _, b := range h.GetBucket() {
		bound := b.GetUpperBound()
		cum := b.GetCumulativeCount()
		if float64(cum) >= rank {
			if math.IsInf(bound, 1) {
				return prevBound
			}
			inBucket := float64(cum - prevCum)
			if inBucket == 0 {
				return bound
			}
			frac := (rank - float64(prevCum)) / inBucket
			return prevBound + frac*(bound-prevBound)
		}
		prevBound, prevCum = bound, cum
	}
	return prevBound
}
