package changefeed

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by operations on a closed feed.
var ErrClosed = errors.New("changefeed: closed")

type localSub struct {
	id      int
	table   string
	scopeID string
	handler Handler
	feed    *Local
	once    sync.Once
}

func (s *localSub) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s.id)
		s.feed.mu.Unlock()
	})
	return nil
}

func (s *localSub) matches(c Change) bool {
	if s.table != c.Table {
		return false
	}
	return s.scopeID == "" || s.scopeID == c.ScopeID
}

// Local fans changes out to in-process subscribers. Publish delivers
// synchronously on the caller's goroutine.
type Local struct {
	mu     sync.RWMutex
	subs   map[int]*localSub
	next   int
	closed bool
}

// NewLocal returns an empty in-process feed.
func NewLocal() *Local {
	return &Local{subs: make(map[int]*localSub)}
}

// Publish delivers c to every matching subscriber.
func (l *Local) Publish(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]Handler, 0, len(l.subs))
	for _, s := range l.subs {
		if s.matches(c) {
			targets = append(targets, s.handler)
		}
	}
	l.mu.RUnlock()

	for _, h := range targets {
		h(c)
	}
	return nil
}

// Subscribe registers h for changes of table within scopeID.
func (l *Local) Subscribe(table, scopeID string, h Handler) (Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	s := &localSub{id: l.next, table: table, scopeID: scopeID, handler: h, feed: l}
	l.next++
	l.subs[s.id] = s
	return s, nil
}

// Open returns the number of live subscriptions.
func (l *Local) Open() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// Close drops every subscription.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.subs = make(map[int]*localSub)
	return nil
}
