// Package monitor tracks translation safety metrics. Counters are exported
// both to Prometheus and as a JSON snapshot for the statistics endpoint.
package monitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector aggregates request outcomes for observability.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	spansTotal      *prometheus.CounterVec
	repairsTotal    prometheus.Counter
	cacheHitsTotal  prometheus.Counter
	cacheMissTotal  prometheus.Counter
	duration        *prometheus.HistogramVec

	mu        sync.RWMutex
	startedAt time.Time
	snapshot  snapshotCounters
}

type snapshotCounters struct {
	Total      int64
	Accepted   int64
	Rejected   int64
	Repairs    int64
	CacheHits  int64
	CacheMiss  int64
	Violations map[string]int64
	durationMS float64
}

// Snapshot is the JSON view served by the statistics endpoint.
type Snapshot struct {
	UptimeSeconds    float64          `json:"uptime_seconds"`
	TotalRequests    int64            `json:"total_requests"`
	Accepted         int64            `json:"accepted"`
	Rejected         int64            `json:"rejected"`
	AcceptanceRate   float64          `json:"acceptance_rate"`
	Repairs          int64            `json:"repairs"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	ViolationsByCode map[string]int64 `json:"violations_by_code"`
	AvgDurationMS    float64          `json:"avg_duration_ms"`
}

// NewCollector registers the medguard metrics on the given registerer.
// Pass prometheus.NewRegistry() in tests to avoid global registration
// conflicts.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medguard_requests_total",
			Help: "Translation requests by language pair and verdict.",
		}, []string{"source_lang", "target_lang", "verdict"}),
		violationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medguard_violations_total",
			Help: "Safety violations by code.",
		}, []string{"code"}),
		spansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medguard_protected_spans_total",
			Help: "Protected spans registered during masking, by kind.",
		}, []string{"kind"}),
		repairsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medguard_placeholder_repairs_total",
			Help: "Garbled placeholder tokens successfully repaired.",
		}),
		cacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medguard_cache_hits_total",
			Help: "Accepted translations served from cache.",
		}),
		cacheMissTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medguard_cache_misses_total",
			Help: "Cache lookups that fell through to the pipeline.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medguard_request_duration_seconds",
			Help:    "End-to-end pipeline latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"verdict"}),
		startedAt: time.Now(),
		snapshot: snapshotCounters{
			Violations: make(map[string]int64),
		},
	}
}

// RecordRequest records one completed pipeline run.
func (c *Collector) RecordRequest(sourceLang, targetLang string, accepted bool, violationCodes []string, duration time.Duration) {
	verdict := "accepted"
	if !accepted {
		verdict = "rejected"
	}

	c.requestsTotal.WithLabelValues(sourceLang, targetLang, verdict).Inc()
	c.duration.WithLabelValues(verdict).Observe(duration.Seconds())
	for _, code := range violationCodes {
		c.violationsTotal.WithLabelValues(code).Inc()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Total++
	if accepted {
		c.snapshot.Accepted++
	} else {
		c.snapshot.Rejected++
	}
	for _, code := range violationCodes {
		c.snapshot.Violations[code]++
	}
	c.snapshot.durationMS += float64(duration.Microseconds()) / 1000.0
}

// RecordSpans records the masked span counts for one request.
func (c *Collector) RecordSpans(kindCounts map[string]int) {
	for kind, n := range kindCounts {
		c.spansTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordRepair records one successful placeholder repair.
func (c *Collector) RecordRepair() {
	c.repairsTotal.Inc()

	c.mu.Lock()
	c.snapshot.Repairs++
	c.mu.Unlock()
}

// RecordCacheHit records a translation served from cache.
func (c *Collector) RecordCacheHit() {
	c.cacheHitsTotal.Inc()

	c.mu.Lock()
	c.snapshot.CacheHits++
	c.mu.Unlock()
}

// RecordCacheMiss records a cache lookup that missed.
func (c *Collector) RecordCacheMiss() {
	c.cacheMissTotal.Inc()

	c.mu.Lock()
	c.snapshot.CacheMiss++
	c.mu.Unlock()
}

// GetSnapshot returns the current aggregate view.
func (c *Collector) GetSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds:    time.Since(c.startedAt).Seconds(),
		TotalRequests:    c.snapshot.Total,
		Accepted:         c.snapshot.Accepted,
		Rejected:         c.snapshot.Rejected,
		Repairs:          c.snapshot.Repairs,
		CacheHits:        c.snapshot.CacheHits,
		CacheMisses:      c.snapshot.CacheMiss,
		ViolationsByCode: make(map[string]int64, len(c.snapshot.Violations)),
	}
	for code, n := range c.snapshot.Violations {
		snap.ViolationsByCode[code] = n
	}
	if snap.TotalRequests > 0 {
		snap.AcceptanceRate = float64(snap.Accepted) / float64(snap.TotalRequests)
		snap.AvgDurationMS = c.snapshot.durationMS / float64(snap.TotalRequests)
	}

	return snap
}
