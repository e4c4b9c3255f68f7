package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix is the root of every change subject.
const SubjectPrefix = "records.changes"

// noScope is the subject token used for tables without an owner scope.
const noScope = "_"

// Subject returns the NATS subject of changes to table within scopeID.
func Subject(table, scopeID string) string {
	if scopeID == "" {
		scopeID = noScope
	}
	return SubjectPrefix + "." + token(table) + "." + token(scopeID)
}

func token(s string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

type natsSub struct {
	sub  *nats.Subscription
	feed *NATS
	once sync.Once
	err  error
}

func (s *natsSub) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		s.err = s.sub.Unsubscribe()
	})
	return s.err
}

// NATS carries changes over a NATS connection so several server processes
// share one feed.
type NATS struct {
	nc     *nats.Conn
	owned  bool
	logger *zap.Logger

	mu   sync.Mutex
	subs map[*natsSub]struct{}
}

// ConnectNATS dials url and returns a feed that owns the connection.
func ConnectNATS(url string, logger *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("recordsdb"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	f := NewNATS(nc, logger)
	f.owned = true
	return f, nil
}

// NewNATS wraps an existing connection. Close leaves the connection open.
func NewNATS(nc *nats.Conn, logger *zap.Logger) *NATS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATS{nc: nc, logger: logger, subs: make(map[*natsSub]struct{})}
}

// Publish sends c on its table and scope subject.
func (f *NATS) Publish(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := f.nc.Publish(Subject(c.Table, c.ScopeID), data); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe listens on the subject for table and scopeID, or on every scope of
// table when scopeID is empty. Interest is flushed to the server before
// returning so a change published afterwards is not missed.
func (f *NATS) Subscribe(table, scopeID string, h Handler) (Subscription, error) {
	subject := Subject(table, scopeID)
	if scopeID == "" {
		subject = SubjectPrefix + "." + token(table) + ".*"
	}

	sub, err := f.nc.Subscribe(subject, func(msg *nats.Msg) {
		var c Change
		if err := json.Unmarshal(msg.Data, &c); err != nil {
			f.logger.Warn("dropping malformed change",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		h(c)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	if err := f.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription %s: %w", subject, err)
	}

	s := &natsSub{sub: sub, feed: f}
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()
	return s, nil
}

// Open returns the number of live subscriptions made through this feed.
func (f *NATS) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Connected reports the connection state for health checks.
func (f *NATS) Connected() bool {
	return f.nc.IsConnected()
}

// Close unsubscribes everything and closes an owned connection.
func (f *NATS) Close() error {
	f.mu.Lock()
	subs := make([]*natsSub, 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	if f.owned {
		f.nc.Close()
	}
	return nil
}

// StartEmbedded runs an in-process NATS server on host:port. Port -1 picks a
// free port; the URL is available from ClientURL.
func StartEmbedded(host string, port int) (*natsserver.Server, error) {
	opts := &natsserver.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	server, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded nats: %w", err)
	}

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		server.Shutdown()
		return nil, fmt.Errorf("embedded nats not ready on %s:%d", host, port)
	}
	return server, nil
}
