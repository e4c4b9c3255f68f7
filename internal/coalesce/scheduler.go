// Package coalesce folds bursts of requests for the same key into one call.
//
// Each key has a single pending slot. Scheduling a key that is already
// pending replaces its function and restarts the window, so the call runs
// once, one window after the most recent request.
package coalesce

import (
	"sync"
	"time"

	"github.com/localnerve/recordsdb/internal/metrics"
)

// DefaultWindow is the quiet period before a pending call runs.
const DefaultWindow = 300 * time.Millisecond

type slot struct {
	timer *time.Timer
	seq   uint64
	fn    func()
}

// Scheduler is safe for concurrent use. The zero value is not usable; call
// New.
type Scheduler struct {
	window  time.Duration
	metrics *metrics.Metrics

	mu      sync.Mutex
	slots   map[string]*slot
	seq     uint64
	stopped bool
	running sync.WaitGroup
}

// New returns a scheduler with the given window. A window of zero or less
// uses DefaultWindow.
func New(window time.Duration, m *metrics.Metrics) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		window:  window,
		metrics: m,
		slots:   make(map[string]*slot),
	}
}

// Window returns the quiet period.
func (s *Scheduler) Window() time.Duration {
	return s.window
}

// Schedule arranges for fn to run one window from now under key. It returns
// true when the request was folded into one already pending. After Stop,
// Schedule does nothing and returns false.
func (s *Scheduler) Schedule(key string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.seq++
	seq := s.seq
	coalesced := false
	if prev, ok := s.slots[key]; ok {
		prev.timer.Stop()
		coalesced = true
		s.metrics.Coalesced()
	}
	s.slots[key] = &slot{
		seq:   seq,
		fn:    fn,
		timer: time.AfterFunc(s.window, func() { s.fire(key, seq) }),
	}
	return coalesced
}

func (s *Scheduler) fire(key string, seq uint64) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	// A stale timer can fire after the slot was replaced or cancelled.
	if !ok || sl.seq != seq || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.slots, key)
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	sl.fn()
}

// Pending reports whether key has a call waiting to run.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[key]
	return ok
}

// Len returns the number of pending keys.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Cancel drops the pending call for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		return false
	}
	sl.timer.Stop()
	delete(s.slots, key)
	return true
}

// Stop cancels every pending call, refuses new ones and waits for calls
// already running. It must not be called from a scheduled function.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for key, sl := range s.slots {
		sl.timer.Stop()
		delete(s.slots, key)
	}
	s.mu.Unlock()

	s.running.Wait()
}
