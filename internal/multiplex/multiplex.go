// Package multiplex shares one change-feed subscription between every
// watcher of the same table and owner scope.
//
// The first Subscribe for a (table, scope) pair opens the feed subscription.
// Later ones only join the callback set. Closing the last handle of a pair
// closes the feed subscription.
package multiplex

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/metrics"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("multiplex: closed")

type groupKey struct {
	table string
	scope string
}

type group struct {
	sub       changefeed.Subscription
	callbacks map[int]changefeed.Handler
}

// Multiplexer is safe for concurrent use.
type Multiplexer struct {
	feed    changefeed.Feed
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	groups map[groupKey]*group
	nextID int
	closed bool
}

// New returns a multiplexer over feed.
func New(feed changefeed.Feed, logger *zap.Logger, m *metrics.Metrics) *Multiplexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multiplexer{
		feed:    feed,
		logger:  logger,
		metrics: m,
		groups:  make(map[groupKey]*group),
	}
}

// Handle is one watcher's membership in a shared subscription.
type Handle struct {
	m       *Multiplexer
	id      int
	handler changefeed.Handler

	mu     sync.Mutex
	key    groupKey
	closed bool
}

// Subscribe registers h for changes of table within scopeID.
func (m *Multiplexer) Subscribe(table, scopeID string, h changefeed.Handler) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	m.nextID++
	hd := &Handle{m: m, id: m.nextID, handler: h, key: groupKey{table: table, scope: scopeID}}
	if err := m.join(hd.key, hd.id, h); err != nil {
		return nil, err
	}
	return hd, nil
}

// join adds a callback to the group for key, opening the feed subscription
// when the group is new. m.mu must be held.
func (m *Multiplexer) join(key groupKey, id int, h changefeed.Handler) error {
	g, ok := m.groups[key]
	if !ok {
		sub, err := m.feed.Subscribe(key.table, key.scope, m.dispatch(key))
		if err != nil {
			return fmt.Errorf("subscribe %s/%s: %w", key.table, key.scope, err)
		}
		g = &group{sub: sub, callbacks: make(map[int]changefeed.Handler)}
		m.groups[key] = g
		m.metrics.SetSubscriptions(len(m.groups))
		m.logger.Debug("opened change subscription",
			zap.String("table", key.table),
			zap.String("scope", key.scope))
	}
	g.callbacks[id] = h
	return nil
}

// leave removes a callback, closing the feed subscription when the group
// empties. m.mu must be held.
func (m *Multiplexer) leave(key groupKey, id int) {
	g, ok := m.groups[key]
	if !ok {
		return
	}
	delete(g.callbacks, id)
	if len(g.callbacks) > 0 {
		return
	}
	delete(m.groups, key)
	m.metrics.SetSubscriptions(len(m.groups))
	if err := g.sub.Close(); err != nil {
		m.logger.Warn("closing change subscription",
			zap.String("table", key.table),
			zap.String("scope", key.scope),
			zap.Error(err))
	}
	m.logger.Debug("closed change subscription",
		zap.String("table", key.table),
		zap.String("scope", key.scope))
}

func (m *Multiplexer) dispatch(key groupKey) changefeed.Handler {
	return func(c changefeed.Change) {
		m.mu.Lock()
		g, ok := m.groups[key]
		if !ok {
			m.mu.Unlock()
			return
		}
		callbacks := make([]changefeed.Handler, 0, len(g.callbacks))
		for _, cb := range g.callbacks {
			callbacks = append(callbacks, cb)
		}
		m.mu.Unlock()

		m.metrics.FeedEvent(c.Table, string(c.Event))
		for _, cb := range callbacks {
			cb(c)
		}
	}
}

// Open returns the number of feed subscriptions currently held.
func (m *Multiplexer) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groups)
}

// Subscribers returns how many handles share the (table, scopeID) group.
func (m *Multiplexer) Subscribers(table, scopeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupKey{table: table, scope: scopeID}]
	if !ok {
		return 0
	}
	return len(g.callbacks)
}

// Close drops every handle and closes all feed subscriptions. Handles closed
// afterwards are no-ops.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for key, g := range m.groups {
		if err := g.sub.Close(); err != nil {
			m.logger.Warn("closing change subscription", zap.String("table", key.table), zap.Error(err))
		}
		delete(m.groups, key)
	}
	m.metrics.SetSubscriptions(0)
}

// Scope returns the scope the handle is currently bound to.
func (h *Handle) Scope() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key.scope
}

// Rebind moves the handle to scopeID. The new group is joined before the old
// one is left, so a subscription shared with other handles is never closed
// and reopened.
func (h *Handle) Rebind(scopeID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.key.scope == scopeID {
		return nil
	}

	m := h.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	next := groupKey{table: h.key.table, scope: scopeID}
	if err := m.join(next, h.id, h.handler); err != nil {
		return err
	}
	m.leave(h.key, h.id)
	h.key = next
	return nil
}

// Close leaves the group. It is safe to call more than once.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	h.m.leave(h.key, h.id)
}
