// Package collection mirrors one table, narrowed to one owner scope, in
// memory and keeps the mirror in step with the store.
//
// A Hub owns the shared pieces: the read cache, the refetch scheduler and
// the subscription multiplexer. It is built once at startup, passed to
// whoever needs a Collection, and closed at shutdown.
package collection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/cache"
	"github.com/localnerve/recordsdb/internal/coalesce"
	"github.com/localnerve/recordsdb/internal/metrics"
	"github.com/localnerve/recordsdb/internal/multiplex"
	"github.com/localnerve/recordsdb/internal/notify"
	"github.com/localnerve/recordsdb/internal/store"
	"github.com/localnerve/recordsdb/internal/types"
)

// Hub is safe for concurrent use.
type Hub struct {
	store    *store.Store
	cache    *cache.Cache
	sched    *coalesce.Scheduler
	mux      *multiplex.Multiplexer
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
	loads    singleflight.Group

	cacheTTL    time.Duration
	debounce    time.Duration
	requireUser bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Option configures a Hub.
type Option func(*Hub)

func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(h *Hub) { h.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithCache supplies a prebuilt cache, for tests that control its clock.
func WithCache(c *cache.Cache) Option {
	return func(h *Hub) { h.cache = c }
}

func WithCacheTTL(d time.Duration) Option {
	return func(h *Hub) { h.cacheTTL = d }
}

func WithDebounce(d time.Duration) Option {
	return func(h *Hub) { h.debounce = d }
}

// WithRequireUser makes every mutation fail with types.ErrAuthRequired when
// the context carries no user.
func WithRequireUser(require bool) Option {
	return func(h *Hub) { h.requireUser = require }
}

// NewHub builds a hub over st. Change subscriptions go through st.Feed().
func NewHub(st *store.Store, opts ...Option) *Hub {
	h := &Hub{
		store:    st,
		notifier: notify.Discard{},
		logger:   zap.NewNop(),
		cacheTTL: cache.DefaultTTL,
		debounce: coalesce.DefaultWindow,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cache == nil {
		h.cache = cache.New(h.cacheTTL, cache.WithMetrics(h.metrics))
	}
	h.sched = coalesce.New(h.debounce, h.metrics)
	h.mux = multiplex.New(st.Feed(), h.logger.Named("multiplex"), h.metrics)
	h.ctx, h.cancel = context.WithCancel(context.Background())
	return h
}

func (h *Hub) Store() *store.Store { return h.store }
func (h *Hub) Cache() *cache.Cache { return h.cache }
func (h *Hub) Scheduler() *coalesce.Scheduler { return h.sched }
func (h *Hub) Multiplexer() *multiplex.Multiplexer { return h.mux }
func (h *Hub) Logger() *zap.Logger { return h.logger }
func (h *Hub) Notifier() notify.Notifier { return h.notifier }

// Context is cancelled when the hub closes. Background refetches run on it.
func (h *Hub) Context() context.Context {
	return h.ctx
}

// Authorize returns types.ErrAuthRequired when the hub requires a user and
// ctx carries none.
func (h *Hub) Authorize(ctx context.Context) error {
	if !h.requireUser {
		return nil
	}
	_, err := auth.CurrentUser(ctx)
	return err
}

// RPC runs a store procedure and drops the cached reads of the tables it
// touches.
func (h *Hub) RPC(ctx context.Context, name string, args map[string]any, touches ...string) (any, error) {
	if err := h.Authorize(ctx); err != nil {
		return nil, err
	}
	result, err := h.store.RPC(ctx, name, args)
	if err != nil {
		h.logger.Warn("rpc failed",
			zap.String("name", name),
			zap.String("kind", string(types.Classify(err))),
			zap.Error(err))
		return nil, err
	}
	for _, table := range touches {
		h.Invalidate(table)
	}
	return result, nil
}

// Invalidate drops every cached read of table.
func (h *Hub) Invalidate(table string) int {
	return h.cache.Invalidate(tablePrefix(table))
}

// Close cancels in-flight refetches, drops pending ones and closes every
// change subscription. Collections stay readable but stop following the
// store.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.cancel()
		h.sched.Stop()
		h.mux.Close()
	})
}

func tablePrefix(table string) string {
	return "records/" + table + "/"
}

func cacheKey(table, scope string) string {
	if scope == "" {
		scope = "*"
	}
	return tablePrefix(table) + scope
}
