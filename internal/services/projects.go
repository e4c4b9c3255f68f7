package services

import (
	"context"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/derive"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/store"
)

// RecalculateProject sets a project's progress to the mean of its goals and
// moves its status along.
func RecalculateProject(ctx context.Context, hub *collection.Hub, projectID string) (models.Project, error) {
	project, err := store.Get[models.Project](ctx, hub.Store(), projectID)
	if err != nil {
		return project, err
	}
	goals, err := store.Select[models.Goal](ctx, hub.Store(), store.Filter{"project_id": projectID})
	if err != nil {
		return project, err
	}
	progress := derive.ProjectProgress(goals)
	status := derive.StatusForProgress(project.Status, progress)

	changes := map[string]any{}
	if progress != project.Progress {
		changes["progress"] = progress
	}
	if status != project.Status {
		changes["status"] = status
	}
	return apply(ctx, hub, project, changes)
}

// RecalculateGoal recomputes an automatic goal from its scope items, then
// its project.
func RecalculateGoal(ctx context.Context, hub *collection.Hub, goalID string) (models.Goal, error) {
	goal, err := store.Get[models.Goal](ctx, hub.Store(), goalID)
	if err != nil {
		return goal, err
	}
	if goal.ProgressType == models.ProgressAutomatic {
		scopes, err := store.Select[models.GoalScope](ctx, hub.Store(), store.Filter{"goal_id": goalID})
		if err != nil {
			return goal, err
		}
		progress := derive.ScopeProgress(derive.Quantities(scopeItems(scopes)))
		status := derive.StatusForProgress(goal.Status, progress)

		changes := map[string]any{}
		if progress != goal.Progress {
			changes["progress"] = progress
		}
		if status != goal.Status {
			changes["status"] = status
		}
		if goal, err = apply(ctx, hub, goal, changes); err != nil {
			return goal, err
		}
	}
	if _, err := RecalculateProject(ctx, hub, goal.ProjectID); err != nil {
		return goal, err
	}
	return goal, nil
}

// UpdateGoalScope changes the quantities of a goal scope item and recomputes
// the goal and its project.
func UpdateGoalScope(ctx context.Context, hub *collection.Hub, id string, partial map[string]any) (models.GoalScope, error) {
	scope, err := collection.New[models.GoalScope](hub).Update(ctx, id, partial)
	if err != nil {
		return scope, err
	}
	if _, err := RecalculateGoal(ctx, hub, scope.GoalID); err != nil {
		return scope, err
	}
	return scope, nil
}
