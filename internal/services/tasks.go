package services

import (
	"context"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/derive"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/types"
)

// MoveTask places a task in another board column.
func MoveTask(ctx context.Context, hub *collection.Hub, id, column string) (models.Task, error) {
	if !models.IsColumn(column) {
		return models.Task{}, types.Validation("column_id", "is not a board column")
	}
	return collection.New[models.Task](hub).Update(ctx, id, map[string]any{"column_id": column})
}

// Dashboard is the tracking view of an organization's board.
type Dashboard struct {
	Counters derive.TaskCounters      `json:"counters"`
	Labels   map[string]int           `json:"labels"`
	Columns  map[string][]models.Task `json:"columns"`
}

// TaskDashboard counts the tasks of an organization as of today
// (YYYY-MM-DD) and groups them by column.
func TaskDashboard(ctx context.Context, hub *collection.Hub, orgID, today string) (Dashboard, error) {
	tasks := collection.New[models.Task](hub)
	if err := tasks.Load(ctx, orgID); err != nil {
		return Dashboard{}, err
	}
	items := tasks.Items()

	columns := make(map[string][]models.Task, len(models.Columns))
	for _, c := range models.Columns {
		columns[c] = []models.Task{}
	}
	for _, t := range items {
		columns[t.ColumnID] = append(columns[t.ColumnID], t)
	}

	counters := derive.CountTasks(items, today)
	return Dashboard{
		Counters: counters,
		Labels:   counters.Labeled(),
		Columns:  columns,
	}, nil
}
