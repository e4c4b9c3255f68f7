// Package store is the record store: table CRUD over GORM with a change
// event published for every committed mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
	"gorm.io/hints"

	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/metrics"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/types"
)

// Filter is a set of column equality conditions. A slice value matches any
// of its elements.
type Filter map[string]any

// Order sorts a selection by one column.
type Order struct {
	Column string
	Desc   bool
}

// Newest orders by creation time descending.
var Newest = Order{Column: "created_at", Desc: true}

// immutable columns cannot be changed by Update.
var immutable = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// Store is safe for concurrent use.
type Store struct {
	db      *gorm.DB
	feed    changefeed.Feed
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	procs map[string]Procedure
}

// New returns a store writing through db and publishing on feed.
func New(db *gorm.DB, feed changefeed.Feed, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		feed:    feed,
		logger:  logger,
		metrics: m,
		procs:   make(map[string]Procedure),
	}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Feed returns the change feed mutations are published on.
func (s *Store) Feed() changefeed.Feed {
	return s.feed
}

func (s *Store) publish(ctx context.Context, c changefeed.Change) {
	if s.feed == nil {
		return
	}
	c.At = time.Now().UTC()
	// The mutation is committed; a lost event only delays watchers until
	// their next load.
	if err := s.feed.Publish(context.WithoutCancel(ctx), c); err != nil {
		s.logger.Warn("failed to publish change",
			zap.String("table", c.Table),
			zap.String("event", string(c.Event)),
			zap.String("record_id", c.RecordID),
			zap.Error(err))
	}
}

func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return stmt.Schema, nil
}

func lookupColumn(sch *schema.Schema, name string) (*schema.Field, error) {
	field := sch.LookUpField(name)
	if field == nil || field.DBName == "" {
		return nil, types.Validation(name, "is not a column of "+sch.Table)
	}
	return field, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ErrNotFound
	}
	return err
}

func image(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// Select returns the rows of T matching filter in the given order.
func Select[T models.Record](ctx context.Context, s *Store, filter Filter, order ...Order) (out []T, err error) {
	var zero T
	table := zero.TableName()
	defer func(start time.Time) { s.metrics.StoreOp(table, "select", start, err) }(time.Now())

	sch, err := parseSchema(s.db, &zero)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Clauses(hints.CommentBefore("select", "records:"+table)).
		Model(&zero)
	for name, value := range filter {
		field, err := lookupColumn(sch, name)
		if err != nil {
			return nil, err
		}
		col := clause.Column{Name: field.DBName}
		if list, ok := value.([]string); ok {
			values := make([]any, len(list))
			for i, v := range list {
				values[i] = v
			}
			query = query.Where(clause.IN{Column: col, Values: values})
			continue
		}
		query = query.Where(clause.Eq{Column: col, Value: value})
	}
	for _, o := range order {
		field, err := lookupColumn(sch, o.Column)
		if err != nil {
			return nil, err
		}
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: field.DBName}, Desc: o.Desc})
	}

	out = make([]T, 0)
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return out, nil
}

// Get returns the row of T with the given id.
func Get[T models.Record](ctx context.Context, s *Store, id string) (rec T, err error) {
	table := rec.TableName()
	defer func(start time.Time) { s.metrics.StoreOp(table, "get", start, err) }(time.Now())

	if err := s.db.WithContext(ctx).
		Clauses(hints.CommentBefore("select", "records:"+table)).
		Where("id = ?", id).
		First(&rec).Error; err != nil {
		return rec, fmt.Errorf("get %s %s: %w", table, id, translate(err))
	}
	return rec, nil
}

// Insert writes rec after filling defaults, stamping the current user and
// validating. It returns the row as stored.
func Insert[T models.Record](ctx context.Context, s *Store, rec T) (_ T, err error) {
	table := rec.TableName()
	defer func(start time.Time) { s.metrics.StoreOp(table, "insert", start, err) }(time.Now())

	if d, ok := any(&rec).(models.Defaulter); ok {
		d.ApplyDefaults()
	}
	if o, ok := any(&rec).(models.Owned); ok {
		o.ResetOwned()
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		if st, ok := any(&rec).(models.Stamper); ok {
			st.Stamp(user.ID)
		}
	}
	if v, ok := any(rec).(models.Validator); ok {
		if err := v.Validate(); err != nil {
			return rec, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return rec, fmt.Errorf("insert %s: %w", table, err)
	}

	s.publish(ctx, changefeed.Change{
		Table:    table,
		Event:    changefeed.Insert,
		ScopeID:  rec.ScopeID(),
		RecordID: rec.RecordID(),
		New:      image(rec),
	})
	return rec, nil
}

// Update applies partial, keyed by column name, to the row with the given
// id. Unknown columns, immutable columns, the scope column, the stamp
// column and procedure-owned columns are rejected. The merged row is
// validated before it is written.
func Update[T models.Record](ctx context.Context, s *Store, id string, partial map[string]any) (_ T, err error) {
	var zero T
	table := zero.TableName()
	defer func(start time.Time) { s.metrics.StoreOp(table, "update", start, err) }(time.Now())

	sch, err := parseSchema(s.db, &zero)
	if err != nil {
		return zero, err
	}
	locked := lockedColumns(&zero)
	columns := make([]string, 0, len(partial)+1)
	for name := range partial {
		field, err := lookupColumn(sch, name)
		if err != nil {
			return zero, err
		}
		// merge keys by column name, so struct field names would be ignored
		if name != field.DBName {
			return zero, types.Validation(name, "is not a column of "+table)
		}
		if locked[field.DBName] {
			return zero, types.Validation(field.DBName, "cannot be changed")
		}
		columns = append(columns, field.DBName)
	}
	if len(columns) == 0 {
		return zero, types.Validation("partial", "has no columns")
	}
	columns = append(columns, "updated_at")

	var before, after T
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&before).Error; err != nil {
			return translate(err)
		}

		merged, err := merge(before, partial)
		if err != nil {
			return err
		}
		if v, ok := any(merged).(models.Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}

		if err := tx.Model(&merged).Select(columns).Updates(&merged).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&after).Error
	})
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", table, id, err)
	}

	s.publish(ctx, changefeed.Change{
		Table:    table,
		Event:    changefeed.Update,
		ScopeID:  after.ScopeID(),
		RecordID: id,
		Old:      image(before),
		New:      image(after),
	})
	return after, nil
}

// lockedColumns lists the columns of rec that Update never writes.
func lockedColumns[T models.Record](rec *T) map[string]bool {
	locked := make(map[string]bool, len(immutable)+4)
	for name := range immutable {
		locked[name] = true
	}
	locked[(*rec).ScopeColumn()] = true
	if st, ok := any(rec).(models.Stamper); ok {
		locked[st.StampColumn()] = true
	}
	if o, ok := any(rec).(models.Owned); ok {
		for _, name := range o.OwnedColumns() {
			locked[name] = true
		}
	}
	delete(locked, "")
	return locked
}

// merge overlays partial on rec through its JSON form, so list and pointer
// fields accept the same shapes the API does.
func merge[T any](rec T, partial map[string]any) (T, error) {
	var out T
	base, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(base, &fields); err != nil {
		return out, err
	}
	for k, v := range partial {
		fields[k] = v
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	return out, nil
}

// Delete removes the row of T with the given id.
func Delete[T models.Record](ctx context.Context, s *Store, id string) (err error) {
	var before T
	table := before.TableName()
	defer func(start time.Time) { s.metrics.StoreOp(table, "delete", start, err) }(time.Now())

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&before).Error; err != nil {
			return translate(err)
		}
		return tx.Where("id = ?", id).Delete(&before).Error
	})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}

	s.publish(ctx, changefeed.Change{
		Table:    table,
		Event:    changefeed.Delete,
		ScopeID:  before.ScopeID(),
		RecordID: id,
		Old:      image(before),
	})
	return nil
}
