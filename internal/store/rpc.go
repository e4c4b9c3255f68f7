package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/types"
)

// Call is the execution context of a procedure. Changes emitted through it
// are published after the transaction commits.
type Call struct {
	Tx      *gorm.DB
	Args    map[string]any
	changes []changefeed.Change
}

// Emit queues a change event for publication on commit.
func (c *Call) Emit(ch changefeed.Change) {
	c.changes = append(c.changes, ch)
}

// Updated queues an UPDATE event carrying both images of a row.
func (c *Call) Updated(before, after models.Record) {
	c.Emit(changefeed.Change{
		Table:    after.TableName(),
		Event:    changefeed.Update,
		ScopeID:  after.ScopeID(),
		RecordID: after.RecordID(),
		Old:      image(before),
		New:      image(after),
	})
}

// String returns a string argument, or a validation error when it is
// missing or not a string.
func (c *Call) String(name string) (string, error) {
	v, ok := c.Args[name].(string)
	if !ok || v == "" {
		return "", types.Validation(name, "is required")
	}
	return v, nil
}

// Int returns an integer argument. JSON numbers arrive as float64 and must
// be whole.
func (c *Call) Int(name string) (int, error) {
	switch v := c.Args[name].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, types.Validation(name, "must be an integer")
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, types.Validation(name, "must be an integer")
		}
		return int(n), nil
	case nil:
		return 0, types.Validation(name, "is required")
	default:
		return 0, types.Validation(name, "must be an integer")
	}
}

// Procedure is a named server-side operation run inside one transaction.
type Procedure func(ctx context.Context, call *Call) (any, error)

// RegisterProcedure makes fn callable through RPC under name, replacing any
// previous registration.
func (s *Store) RegisterProcedure(name string, fn Procedure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs[name] = fn
}

// RPC runs the named procedure in a transaction.
func (s *Store) RPC(ctx context.Context, name string, args map[string]any) (result any, err error) {
	defer func(start time.Time) { s.metrics.StoreOp("rpc:"+name, "rpc", start, err) }(time.Now())

	s.mu.RLock()
	fn, ok := s.procs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rpc %s: %w", name, types.ErrNotFound)
	}

	call := &Call{Args: args}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call.Tx = tx
		var err error
		result, err = fn(ctx, call)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", name, err)
	}

	for _, ch := range call.changes {
		s.publish(ctx, ch)
	}
	return result, nil
}
