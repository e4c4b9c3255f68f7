package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/recordsdb/internal/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.GetCounter().GetValue()
	}
	return pb.GetGauge().GetValue()
}

func TestGetWithinTTLIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	c := New(30*time.Second, WithClock(clock.Now))

	c.Set("tasks:org-1", []string{"a", "b"})

	first, ok := c.Get("tasks:org-1")
	require.True(t, ok)
	clock.Advance(29 * time.Second)
	second, ok := c.Get("tasks:org-1")
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestGetAfterTTLMisses(t *testing.T) {
	clock := newFakeClock()
	c := New(30*time.Second, WithClock(clock.Now))

	c.Set("tasks:org-1", 1)
	clock.Advance(30 * time.Second)

	_, ok := c.Get("tasks:org-1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSetOverwritesAndRefreshes(t *testing.T) {
	clock := newFakeClock()
	c := New(30*time.Second, WithClock(clock.Now))

	c.Set("k", 1)
	clock.Advance(20 * time.Second)
	c.Set("k", 2)
	clock.Advance(20 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInvalidateBySubstring(t *testing.T) {
	c := New(time.Minute)
	c.Set("tasks:org-1", 1)
	c.Set("tasks:org-2", 2)
	c.Set("projects:org-1", 3)

	assert.Equal(t, 2, c.Invalidate("tasks:"))

	_, ok := c.Get("tasks:org-1")
	assert.False(t, ok)
	_, ok = c.Get("projects:org-1")
	assert.True(t, ok)

	assert.Equal(t, 1, c.Invalidate("org-1"))
	assert.Equal(t, 0, c.Len())
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
}

func TestMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(time.Minute, WithMetrics(m))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Get("missing")
	c.Invalidate("b")

	assert.Equal(t, 1.0, value(t, m.CacheHitsTotal))
	assert.Equal(t, 1.0, value(t, m.CacheMissesTotal))
	assert.Equal(t, 1.0, value(t, m.CacheInvalidationsTotal))
	assert.Equal(t, 1.0, value(t, m.CacheEntries))
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "k" + string(rune('a'+i))
			c.Set(key, i)
			c.Get(key)
			c.Invalidate("zz")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, c.Len())
}
