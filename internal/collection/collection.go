package collection

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/multiplex"
	"github.com/localnerve/recordsdb/internal/notify"
	"github.com/localnerve/recordsdb/internal/store"
	"github.com/localnerve/recordsdb/internal/types"
)

// Collection mirrors the rows of T owned by one parent, newest first.
//
// Local state changes only after the store confirms an operation. A failed
// operation is logged, reported to the hub's notifier and returned; the
// mirror keeps its previous contents.
type Collection[T models.Record] struct {
	hub    *Hub
	table  string
	scoped bool
	id     string

	mu       sync.RWMutex
	parent   string
	items    []T
	loading  bool
	gen      uint64
	handle   *multiplex.Handle
	watchers map[int]func([]T)
	nextW    int
}

// New returns an empty collection of T bound to hub.
func New[T models.Record](hub *Hub) *Collection[T] {
	var zero T
	return &Collection[T]{
		hub:      hub,
		table:    zero.TableName(),
		scoped:   zero.ScopeColumn() != "",
		id:       uuid.NewString(),
		items:    []T{},
		watchers: make(map[int]func([]T)),
	}
}

// Table returns the mirrored table.
func (c *Collection[T]) Table() string {
	return c.table
}

// Parent returns the scope the collection was last loaded for.
func (c *Collection[T]) Parent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parent
}

// Loading reports whether a load is in flight.
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Items returns a copy of the mirrored rows.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Find returns the mirrored row with the given id.
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Watch calls fn with a snapshot after every change of the mirror. The
// returned function stops the calls.
func (c *Collection[T]) Watch(fn func([]T)) func() {
	c.mu.Lock()
	id := c.nextW
	c.nextW++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// emit must be called without c.mu held.
func (c *Collection[T]) emit() {
	c.mu.RLock()
	snapshot := slices.Clone(c.items)
	fns := make([]func([]T), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (c *Collection[T]) filter(parentID string) store.Filter {
	if !c.scoped {
		return nil
	}
	var zero T
	return store.Filter{zero.ScopeColumn(): parentID}
}

// fetch reads the rows of parentID, from the cache when fresh is false.
// Concurrent fetches of the same key share one store call.
func (c *Collection[T]) fetch(ctx context.Context, parentID string, fresh bool) ([]T, error) {
	key := cacheKey(c.table, parentID)
	if !fresh {
		if v, ok := c.hub.cache.Get(key); ok {
			if rows, ok := v.([]T); ok {
				return slices.Clone(rows), nil
			}
		}
	}

	flight := key
	if fresh {
		flight = "fresh:" + key
	}
	v, err, _ := c.hub.loads.Do(flight, func() (any, error) {
		rows, err := store.Select[T](ctx, c.hub.store, c.filter(parentID), store.Newest)
		if err != nil {
			return nil, err
		}
		c.hub.cache.Set(key, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]T)), nil
}

// Load replaces the mirror with the rows owned by parentID. Tables without
// an owner scope ignore parentID. When loads overlap, only the most recently
// started one is applied.
func (c *Collection[T]) Load(ctx context.Context, parentID string) error {
	return c.load(ctx, parentID, false)
}

func (c *Collection[T]) load(ctx context.Context, parentID string, fresh bool) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.parent = parentID
	c.loading = true
	c.mu.Unlock()

	start := time.Now()
	rows, err := c.fetch(ctx, parentID, fresh)

	c.mu.Lock()
	current := c.gen == gen
	if current {
		c.loading = false
		if err == nil {
			c.items = rows
		}
	}
	c.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return c.fail(ctx, "load", err, "Erro ao carregar registros")
	}
	c.hub.logger.Debug("collection loaded",
		zap.String("table", c.table),
		zap.String("parent", parentID),
		zap.Int("rows", len(rows)),
		zap.Bool("fresh", fresh),
		zap.Bool("applied", current),
		zap.Duration("took", time.Since(start)))
	if current {
		c.emit()
	}
	return nil
}

func (c *Collection[T]) fail(ctx context.Context, op string, err error, title string) error {
	c.hub.logger.Error("collection operation failed",
		zap.String("table", c.table),
		zap.String("op", op),
		zap.String("kind", string(types.Classify(err))),
		zap.Error(err))
	c.hub.notifier.Notify(notify.Notification{
		Level:   notify.Error,
		Title:   title,
		Message: types.UserMessage(err),
		Table:   c.table,
		At:      time.Now().UTC(),
	})
	return err
}

func (c *Collection[T]) succeed(title, message string) {
	c.hub.notifier.Notify(notify.Notification{
		Level:   notify.Success,
		Title:   title,
		Message: message,
		Table:   c.table,
		At:      time.Now().UTC(),
	})
}

func (c *Collection[T]) authorize(ctx context.Context) error {
	return c.hub.Authorize(ctx)
}

// owns reports whether rec belongs in this mirror.
func (c *Collection[T]) owns(rec T) bool {
	return !c.scoped || c.parent == "" || rec.ScopeID() == c.parent
}

// upsert replaces the row with rec's id or prepends rec. c.mu must be held.
func (c *Collection[T]) upsert(rec T) {
	for i, item := range c.items {
		if item.RecordID() == rec.RecordID() {
			c.items[i] = rec
			return
		}
	}
	c.items = append([]T{rec}, c.items...)
}

// Create inserts rec and merges the stored row into the mirror. On failure
// it returns the zero T and the error.
func (c *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := c.authorize(ctx); err != nil {
		return zero, c.fail(ctx, "create", err, "Erro ao criar registro")
	}
	created, err := store.Insert(ctx, c.hub.store, rec)
	if err != nil {
		return zero, c.fail(ctx, "create", err, "Erro ao criar registro")
	}

	c.mu.Lock()
	if c.owns(created) {
		c.upsert(created)
	}
	c.mu.Unlock()

	c.hub.Invalidate(c.table)
	c.succeed("Registro criado", "Registro criado com sucesso.")
	c.emit()
	return created, nil
}

// Update applies partial to the row with the given id and merges the result.
func (c *Collection[T]) Update(ctx context.Context, id string, partial map[string]any) (T, error) {
	var zero T
	if err := c.authorize(ctx); err != nil {
		return zero, c.fail(ctx, "update", err, "Erro ao atualizar registro")
	}
	updated, err := store.Update[T](ctx, c.hub.store, id, partial)
	if err != nil {
		return zero, c.fail(ctx, "update", err, "Erro ao atualizar registro")
	}

	c.mu.Lock()
	for i, item := range c.items {
		if item.RecordID() == id {
			c.items[i] = updated
			break
		}
	}
	c.mu.Unlock()

	c.hub.Invalidate(c.table)
	c.succeed("Registro atualizado", "Registro atualizado com sucesso.")
	c.emit()
	return updated, nil
}

// Delete removes the row with the given id from the store and the mirror.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.authorize(ctx); err != nil {
		return c.fail(ctx, "delete", err, "Erro ao excluir registro")
	}
	if err := store.Delete[T](ctx, c.hub.store, id); err != nil {
		return c.fail(ctx, "delete", err, "Erro ao excluir registro")
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(item T) bool { return item.RecordID() == id })
	c.mu.Unlock()

	c.hub.Invalidate(c.table)
	c.succeed("Registro excluído", "Registro excluído com sucesso.")
	c.emit()
	return nil
}

// Mount loads parentID and follows its changes: every change event schedules
// a debounced reload that bypasses the cache. Mounting again with another
// parent moves the subscription.
func (c *Collection[T]) Mount(ctx context.Context, parentID string) error {
	if err := c.Load(ctx, parentID); err != nil {
		return err
	}

	scope := ""
	if c.scoped {
		scope = parentID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		if err := c.handle.Rebind(scope); err != nil {
			return fmt.Errorf("rebind %s: %w", c.table, err)
		}
		return nil
	}
	handle, err := c.hub.mux.Subscribe(c.table, scope, c.onChange)
	if err != nil {
		return fmt.Errorf("mount %s: %w", c.table, err)
	}
	c.handle = handle
	return nil
}

// Mounted reports whether the collection follows changes.
func (c *Collection[T]) Mounted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle != nil
}

// Unmount stops following changes and drops a pending reload.
func (c *Collection[T]) Unmount() {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()

	if handle != nil {
		handle.Close()
	}
	c.hub.sched.Cancel(c.id)
}

func (c *Collection[T]) onChange(ch changefeed.Change) {
	c.hub.sched.Schedule(c.id, c.refetch)
}

func (c *Collection[T]) refetch() {
	if !c.Mounted() {
		return
	}
	c.hub.metrics.Refetch(c.table)
	if err := c.load(c.hub.ctx, c.Parent(), true); err != nil {
		c.hub.logger.Warn("refetch failed",
			zap.String("table", c.table),
			zap.String("parent", c.Parent()),
			zap.Error(err))
	}
}
