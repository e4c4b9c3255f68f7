package multiplex

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/recordsdb/internal/changefeed"
)

func TestOneFeedSubscriptionPerScope(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	const n = 5
	handles := make([]*Handle, 0, n)
	for i := 0; i < n; i++ {
		h, err := m.Subscribe("tasks", "org-1", func(changefeed.Change) {})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	assert.Equal(t, 1, feed.Open())
	assert.Equal(t, 1, m.Open())
	assert.Equal(t, n, m.Subscribers("tasks", "org-1"))

	for i, h := range handles {
		h.Close()
		if i < n-1 {
			assert.Equal(t, 1, feed.Open(), "subscription closed early after %d unsubscribes", i+1)
		}
	}
	assert.Equal(t, 0, feed.Open())
	assert.Equal(t, 0, m.Open())
}

func TestEveryCallbackReceivesEvents(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	var a, b atomic.Int32
	_, err := m.Subscribe("tasks", "org-1", func(changefeed.Change) { a.Add(1) })
	require.NoError(t, err)
	_, err = m.Subscribe("tasks", "org-1", func(changefeed.Change) { b.Add(1) })
	require.NoError(t, err)

	require.NoError(t, feed.Publish(context.Background(), changefeed.Change{Table: "tasks", ScopeID: "org-1", Event: changefeed.Insert}))
	require.NoError(t, feed.Publish(context.Background(), changefeed.Change{Table: "tasks", ScopeID: "org-2", Event: changefeed.Insert}))

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

func TestDistinctScopesOpenDistinctSubscriptions(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	h1, err := m.Subscribe("tasks", "org-1", func(changefeed.Change) {})
	require.NoError(t, err)
	h2, err := m.Subscribe("tasks", "org-2", func(changefeed.Change) {})
	require.NoError(t, err)
	_, err = m.Subscribe("projects", "org-1", func(changefeed.Change) {})
	require.NoError(t, err)

	assert.Equal(t, 3, feed.Open())
	h1.Close()
	h2.Close()
	h2.Close()
	assert.Equal(t, 1, feed.Open())
}

func TestRebindMovesSubscription(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	var got []string
	var mu sync.Mutex
	h, err := m.Subscribe("tasks", "org-1", func(c changefeed.Change) {
		mu.Lock()
		got = append(got, c.ScopeID)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, h.Rebind("org-2"))
	assert.Equal(t, "org-2", h.Scope())
	assert.Equal(t, 1, feed.Open())
	assert.Equal(t, 0, m.Subscribers("tasks", "org-1"))

	ctx := context.Background()
	require.NoError(t, feed.Publish(ctx, changefeed.Change{Table: "tasks", ScopeID: "org-1"}))
	require.NoError(t, feed.Publish(ctx, changefeed.Change{Table: "tasks", ScopeID: "org-2"}))

	mu.Lock()
	assert.Equal(t, []string{"org-2"}, got)
	mu.Unlock()

	require.NoError(t, h.Rebind("org-2"))
	assert.Equal(t, 1, feed.Open())
}

func TestRebindKeepsSharedSubscription(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	_, err := m.Subscribe("tasks", "org-1", func(changefeed.Change) {})
	require.NoError(t, err)
	h, err := m.Subscribe("tasks", "org-1", func(changefeed.Change) {})
	require.NoError(t, err)

	require.NoError(t, h.Rebind("org-2"))
	assert.Equal(t, 2, feed.Open())
	assert.Equal(t, 1, m.Subscribers("tasks", "org-1"))
	assert.Equal(t, 1, m.Subscribers("tasks", "org-2"))
}

func TestCloseMultiplexer(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	h, err := m.Subscribe("tasks", "org-1", func(changefeed.Change) {})
	require.NoError(t, err)
	m.Close()

	assert.Equal(t, 0, feed.Open())
	h.Close()
	assert.ErrorIs(t, h.Rebind("org-2"), ErrClosed)

	_, err = m.Subscribe("tasks", "org-1", func(changefeed.Change) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCallbackMayUnsubscribe(t *testing.T) {
	feed := changefeed.NewLocal()
	m := New(feed, nil, nil)

	var h *Handle
	var err error
	h, err = m.Subscribe("tasks", "org-1", func(changefeed.Change) { h.Close() })
	require.NoError(t, err)

	require.NoError(t, feed.Publish(context.Background(), changefeed.Change{Table: "tasks", ScopeID: "org-1"}))
	assert.Equal(t, 0, feed.Open())
}
