package handlers

import (
	"bufio"
	"context"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/store"
	"github.com/localnerve/recordsdb/internal/types"
	"github.com/localnerve/recordsdb/internal/utils"
)

// Route is a table exposed over HTTP.
type Route interface {
	Table() string
	Register(records, live fiber.Router, h *Handler)
}

// Resource exposes list, create, update, delete and a live view of T.
// AfterChange, when set, runs after every successful mutation with the
// stored row; for deletes it receives the row as it was.
type Resource[T models.Record] struct {
	AfterChange func(ctx context.Context, hub *collection.Hub, rec T, deleted bool) error
}

func (Resource[T]) Table() string {
	var zero T
	return zero.TableName()
}

// Register mounts the routes of T under records and live.
func (r Resource[T]) Register(records, live fiber.Router, h *Handler) {
	path := "/" + r.Table()
	records.Get(path, r.list(h))
	records.Post(path, r.create(h))
	records.Patch(path+"/:id", r.update(h))
	records.Delete(path+"/:id", r.remove(h))
	live.Get(path, r.live(h))
}

// scope reads the owner scope of a request. Scoped tables require one.
func (r Resource[T]) scope(c *fiber.Ctx) (string, error) {
	var zero T
	scope := c.Query("scope")
	if zero.ScopeColumn() != "" && scope == "" {
		return "", types.Validation("scope", "is required for "+r.Table())
	}
	return scope, nil
}

func (r Resource[T]) after(ctx context.Context, h *Handler, rec T, deleted bool) error {
	if r.AfterChange == nil {
		return nil
	}
	return r.AfterChange(ctx, h.Hub, rec, deleted)
}

func (r Resource[T]) list(h *Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := r.scope(c)
		if err != nil {
			return utils.ErrorFrom(c, err)
		}
		col := collection.New[T](h.Hub)
		if err := col.Load(c.UserContext(), scope); err != nil {
			return utils.ErrorFrom(c, err)
		}
		items := col.Items()
		if ids := parseList(c, "id"); len(ids) > 0 {
			items = slices.DeleteFunc(items, func(rec T) bool {
				return !slices.Contains(ids, rec.RecordID())
			})
		}
		return utils.SuccessResponse(c, items, fiber.StatusOK)
	}
}

func (r Resource[T]) create(h *Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rec T
		if err := decodeRecord(c, &rec); err != nil {
			return utils.ErrorFrom(c, err)
		}
		ctx := c.UserContext()
		created, err := collection.New[T](h.Hub).Create(ctx, rec)
		if err != nil {
			return utils.ErrorFrom(c, err)
		}
		if err := r.after(ctx, h, created, false); err != nil {
			return utils.ErrorFrom(c, err)
		}
		return utils.SuccessResponse(c, created, fiber.StatusCreated)
	}
}

func (r Resource[T]) update(h *Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		partial, err := decodeObject(c)
		if err != nil {
			return utils.ErrorFrom(c, err)
		}
		ctx := c.UserContext()
		updated, err := collection.New[T](h.Hub).Update(ctx, c.Params("id"), partial)
		if err != nil {
			return utils.ErrorFrom(c, err)
		}
		if err := r.after(ctx, h, updated, false); err != nil {
			return utils.ErrorFrom(c, err)
		}
		// reload when the hook rewrote derived columns of this row
		if r.AfterChange != nil {
			if fresh, err := store.Get[T](ctx, h.Hub.Store(), updated.RecordID()); err == nil {
				updated = fresh
			}
		}
		return utils.SuccessResponse(c, updated, fiber.StatusOK)
	}
}

func (r Resource[T]) remove(h *Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := c.Params("id")

		var before T
		if r.AfterChange != nil {
			var err error
			if before, err = store.Get[T](ctx, h.Hub.Store(), id); err != nil {
				return utils.ErrorFrom(c, err)
			}
		}
		if err := collection.New[T](h.Hub).Delete(ctx, id); err != nil {
			return utils.ErrorFrom(c, err)
		}
		if r.AfterChange != nil {
			if err := r.after(ctx, h, before, true); err != nil {
				return utils.ErrorFrom(c, err)
			}
		}
		return utils.MutationSuccessResponse(c, id, 1)
	}
}

// live streams snapshots of the mirrored rows as server-sent events: one
// "snapshot" event on connect and one after every change, with heartbeat
// comments in between. The collection is unmounted when the client goes
// away or the hub closes.
func (r Resource[T]) live(h *Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := r.scope(c)
		if err != nil {
			return utils.ErrorFrom(c, err)
		}

		// the request context is recycled once the handler returns
		ctx := context.WithoutCancel(c.UserContext())
		col := collection.New[T](h.Hub)
		if err := col.Mount(ctx, scope); err != nil {
			return utils.ErrorFrom(c, err)
		}

		updates := make(chan []T, 1)
		stop := col.Watch(func(items []T) { latest(updates, items) })

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		table := r.Table()
		logger := h.logger()
		heartbeat := h.heartbeat()
		done := h.Hub.Context().Done()
		initial := col.Items()

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer col.Unmount()
			defer stop()
			logger.Debug("live view opened", zap.String("table", table), zap.String("scope", scope))

			if err := writeEvent(w, "snapshot", initial); err != nil {
				return
			}
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()

			for {
				select {
				case items := <-updates:
					if err := writeEvent(w, "snapshot", items); err != nil {
						logger.Debug("live view closed", zap.String("table", table), zap.Error(err))
						return
					}
				case <-ticker.C:
					if err := writeComment(w, "heartbeat"); err != nil {
						logger.Debug("live view closed", zap.String("table", table), zap.Error(err))
						return
					}
				case <-done:
					_ = writeEvent(w, "close", fiber.Map{"reason": "shutdown"})
					return
				}
			}
		}))
		return nil
	}
}

// latest replaces any unsent value in ch with v.
func latest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
