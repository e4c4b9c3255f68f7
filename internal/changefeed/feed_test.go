package changefeed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	changes []Change
}

func (c *collector) handle(ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.changes)
}

func (c *collector) last() Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changes[len(c.changes)-1]
}

func TestLocalScopeFiltering(t *testing.T) {
	feed := NewLocal()
	ctx := context.Background()

	var scoped, all, other collector
	_, err := feed.Subscribe("tasks", "org-1", scoped.handle)
	require.NoError(t, err)
	_, err = feed.Subscribe("tasks", "", all.handle)
	require.NoError(t, err)
	_, err = feed.Subscribe("projects", "org-1", other.handle)
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, Change{Table: "tasks", Event: Insert, ScopeID: "org-1", RecordID: "a"}))
	require.NoError(t, feed.Publish(ctx, Change{Table: "tasks", Event: Insert, ScopeID: "org-2", RecordID: "b"}))

	assert.Equal(t, 1, scoped.len())
	assert.Equal(t, 2, all.len())
	assert.Equal(t, 0, other.len())
	assert.Equal(t, "b", all.last().RecordID)
}

func TestLocalCloseSubscription(t *testing.T) {
	feed := NewLocal()
	var got collector

	sub, err := feed.Subscribe("tasks", "org-1", got.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Open())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, feed.Open())

	require.NoError(t, feed.Publish(context.Background(), Change{Table: "tasks", ScopeID: "org-1"}))
	assert.Equal(t, 0, got.len())
}

func TestLocalClosedFeed(t *testing.T) {
	feed := NewLocal()
	require.NoError(t, feed.Close())

	_, err := feed.Subscribe("tasks", "", func(Change) {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, feed.Publish(context.Background(), Change{Table: "tasks"}), ErrClosed)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "records.changes.tasks.org-1", Subject("tasks", "org-1"))
	assert.Equal(t, "records.changes.document_types._", Subject("document_types", ""))
	assert.Equal(t, "records.changes.tasks.a_b", Subject("tasks", "a.b"))
}

func startTestNATS(t *testing.T) *NATS {
	t.Helper()
	server, err := StartEmbedded("127.0.0.1", -1)
	require.NoError(t, err)
	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	feed, err := ConnectNATS(server.ClientURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = feed.Close() })
	return feed
}

func TestNATSRoundTrip(t *testing.T) {
	feed := startTestNATS(t)
	assert.True(t, feed.Connected())

	var scoped, all collector
	sub, err := feed.Subscribe("tasks", "org-1", scoped.handle)
	require.NoError(t, err)
	_, err = feed.Subscribe("tasks", "", all.handle)
	require.NoError(t, err)
	assert.Equal(t, 2, feed.Open())

	ctx := context.Background()
	newImage := json.RawMessage(`{"id":"a","title":"Digitalizar caixas"}`)
	require.NoError(t, feed.Publish(ctx, Change{Table: "tasks", Event: Insert, ScopeID: "org-1", RecordID: "a", New: newImage}))
	require.NoError(t, feed.Publish(ctx, Change{Table: "tasks", Event: Delete, ScopeID: "org-2", RecordID: "b"}))

	require.Eventually(t, func() bool { return all.len() == 2 && scoped.len() == 1 }, 2*time.Second, 10*time.Millisecond)

	first := scoped.last()
	assert.Equal(t, Insert, first.Event)
	assert.Equal(t, "a", first.RecordID)
	assert.JSONEq(t, string(newImage), string(first.New))

	require.NoError(t, sub.Close())
	assert.Equal(t, 1, feed.Open())
}
