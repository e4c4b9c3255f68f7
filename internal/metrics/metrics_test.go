package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.SetCacheEntries(3)
		m.CacheInvalidated(2)
		m.SetSubscriptions(1)
		m.FeedEvent("tasks", "INSERT")
		m.Refetch("tasks")
		m.Coalesced()
		m.StoreOp("tasks", "select", time.Now(), nil)
	})
}

func TestCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheHit()
	m.CacheHit()
	m.CacheInvalidated(0)
	m.CacheInvalidated(4)
	m.FeedEvent("tasks", "UPDATE")
	m.StoreOp("tasks", "update", time.Now(), errors.New("boom"))
	m.StoreOp("tasks", "update", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CacheInvalidationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues("tasks", "UPDATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOpsTotal.WithLabelValues("tasks", "update", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOpsTotal.WithLabelValues("tasks", "update", "ok")))
}
