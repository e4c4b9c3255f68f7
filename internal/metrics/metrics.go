// Package metrics holds the Prometheus collectors of the sync layer.
//
// Metrics:
//   - records_cache_hits_total / records_cache_misses_total
//   - records_cache_entries - current number of cached keys
//   - records_cache_invalidations_total - keys removed by Invalidate
//   - records_feed_subscriptions - open change-feed subscriptions
//   - records_feed_events_total{table,event} - change events received
//   - records_refetch_total{table} - debounced refetches executed
//   - records_refetch_coalesced_total - requests folded into a pending one
//   - records_store_ops_total{table,op,result} - store calls
//   - records_store_op_duration_seconds{op} - store call latency
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. Build one per registry with New.
type Metrics struct {
	CacheHitsTotal          prometheus.Counter
	CacheMissesTotal        prometheus.Counter
	CacheEntries            prometheus.Gauge
	CacheInvalidationsTotal prometheus.Counter

	FeedSubscriptions prometheus.Gauge
	FeedEventsTotal   *prometheus.CounterVec

	RefetchTotal          *prometheus.CounterVec
	RefetchCoalescedTotal prometheus.Counter

	StoreOpsTotal *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass prometheus.NewRegistry() so
// repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "records_cache_hits_total",
			Help: "Total number of local cache hits",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "records_cache_misses_total",
			Help: "Total number of local cache misses, expired entries included",
		}),
		CacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "records_cache_entries",
			Help: "Current number of keys in the local cache",
		}),
		CacheInvalidationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "records_cache_invalidations_total",
			Help: "Total number of cache keys removed by pattern invalidation",
		}),
		FeedSubscriptions: f.NewGauge(prometheus.GaugeOpts{
			Name: "records_feed_subscriptions",
			Help: "Current number of open change-feed subscriptions",
		}),
		FeedEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "records_feed_events_total",
			Help: "Total number of change events delivered to the multiplexer",
		}, []string{"table", "event"}),
		RefetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "records_refetch_total",
			Help: "Total number of debounced collection refetches executed",
		}, []string{"table"}),
		RefetchCoalescedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "records_refetch_coalesced_total",
			Help: "Total number of refetch requests folded into a pending one",
		}),
		StoreOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "records_store_ops_total",
			Help: "Total number of store operations",
		}, []string{"table", "op", "result"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "records_store_op_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHitsTotal.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMissesTotal.Inc()
	}
}

func (m *Metrics) SetCacheEntries(n int) {
	if m != nil {
		m.CacheEntries.Set(float64(n))
	}
}

func (m *Metrics) CacheInvalidated(n int) {
	if m != nil && n > 0 {
		m.CacheInvalidationsTotal.Add(float64(n))
	}
}

func (m *Metrics) SetSubscriptions(n int) {
	if m != nil {
		m.FeedSubscriptions.Set(float64(n))
	}
}

func (m *Metrics) FeedEvent(table, event string) {
	if m != nil {
		m.FeedEventsTotal.WithLabelValues(table, event).Inc()
	}
}

func (m *Metrics) Refetch(table string) {
	if m != nil {
		m.RefetchTotal.WithLabelValues(table).Inc()
	}
}

func (m *Metrics) Coalesced() {
	if m != nil {
		m.RefetchCoalescedTotal.Inc()
	}
}

// StoreOp records one store call and its latency.
func (m *Metrics) StoreOp(table, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreOpsTotal.WithLabelValues(table, op, result).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
