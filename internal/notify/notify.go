// Package notify delivers the transient success and failure messages raised
// by collection operations.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// Notification is one user-facing message.
type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Table   string    `json:"table,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use and must not block.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) Notify(n Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
		zap.String("table", n.Table),
	}
	if n.Level == Error {
		l.Logger.Warn(n.Message, fields...)
		return
	}
	l.Logger.Info(n.Message, fields...)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Count returns how many notifications of level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Level == level {
			n++
		}
	}
	return n
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, target := range m {
		target.Notify(n)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) {}
