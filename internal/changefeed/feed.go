// Package changefeed carries row change events from the store to anything
// watching a table, optionally narrowed to one owner scope.
package changefeed

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the kind of row change.
type Event string

const (
	Insert Event = "INSERT"
	Update Event = "UPDATE"
	Delete Event = "DELETE"
)

// Change describes one row change. Old is empty for inserts and New is empty
// for deletes.
type Change struct {
	Table    string          `json:"table"`
	Event    Event           `json:"event"`
	ScopeID  string          `json:"scope_id,omitempty"`
	RecordID string          `json:"record_id"`
	Old      json.RawMessage `json:"old,omitempty"`
	New      json.RawMessage `json:"new,omitempty"`
	At       time.Time       `json:"at"`
}

// Handler receives changes. Handlers must not block for long; the feed may
// deliver from a shared goroutine.
type Handler func(Change)

// Subscription is an open change subscription.
type Subscription interface {
	Close() error
}

// Feed publishes and subscribes to change events. An empty scopeID in
// Subscribe matches every scope of the table.
type Feed interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(table, scopeID string, h Handler) (Subscription, error)
	Close() error
}

// Counter is implemented by feeds that can report how many subscriptions are
// currently open.
type Counter interface {
	Open() int
}
