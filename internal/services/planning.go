package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/derive"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/store"
)

// apply writes the given columns of rec when there are any and drops the
// cached reads of its table.
func apply[T models.Record](ctx context.Context, hub *collection.Hub, rec T, changes map[string]any) (T, error) {
	if len(changes) == 0 {
		return rec, nil
	}
	updated, err := store.Update[T](ctx, hub.Store(), rec.RecordID(), changes)
	if err != nil {
		return rec, err
	}
	hub.Invalidate(rec.TableName())
	hub.Logger().Debug("progress recalculated",
		zap.String("table", rec.TableName()),
		zap.String("id", rec.RecordID()),
		zap.Any("changes", changes))
	return updated, nil
}

func scopeItems[T interface{ Item() models.ScopeItem }](rows []T) []models.ScopeItem {
	items := make([]models.ScopeItem, len(rows))
	for i, r := range rows {
		items[i] = r.Item()
	}
	return items
}

// actionProgress recomputes an automatic action from its scope items.
// Manual actions are returned unchanged.
func actionProgress(ctx context.Context, hub *collection.Hub, action models.PlanAction) (models.PlanAction, error) {
	if action.ProgressType != models.ProgressAutomatic {
		return action, nil
	}
	scopes, err := store.Select[models.ActionScope](ctx, hub.Store(), store.Filter{"action_id": action.ID})
	if err != nil {
		return action, err
	}
	progress := derive.ScopeProgress(derive.Quantities(scopeItems(scopes)))
	status := derive.StatusForProgress(action.Status, progress)

	changes := map[string]any{}
	if progress != action.Progress {
		changes["progress"] = progress
	}
	if status != action.Status {
		changes["status"] = status
	}
	return apply(ctx, hub, action, changes)
}

// objectiveProgress sets an objective to the mean of its actions.
func objectiveProgress(ctx context.Context, hub *collection.Hub, objectiveID string) (models.PlanObjective, error) {
	objective, err := store.Get[models.PlanObjective](ctx, hub.Store(), objectiveID)
	if err != nil {
		return objective, err
	}
	actions, err := store.Select[models.PlanAction](ctx, hub.Store(), store.Filter{"objective_id": objectiveID})
	if err != nil {
		return objective, err
	}
	progress := derive.ObjectiveProgress(actions)
	status := derive.StatusForProgress(objective.Status, progress)
	completed := progress >= 100

	changes := map[string]any{}
	if progress != objective.Progress {
		changes["progress"] = progress
	}
	if status != objective.Status {
		changes["status"] = status
	}
	if completed != objective.Completed {
		changes["completed"] = completed
	}
	return apply(ctx, hub, objective, changes)
}

// RecalculatePlan sets a plan's progress to the mean of its objectives.
func RecalculatePlan(ctx context.Context, hub *collection.Hub, planID string) (models.StrategicPlan, error) {
	plan, err := store.Get[models.StrategicPlan](ctx, hub.Store(), planID)
	if err != nil {
		return plan, err
	}
	objectives, err := store.Select[models.PlanObjective](ctx, hub.Store(), store.Filter{"plan_id": planID})
	if err != nil {
		return plan, err
	}
	progress := derive.PlanProgress(objectives)
	if progress == plan.Progress {
		return plan, nil
	}
	return apply(ctx, hub, plan, map[string]any{"progress": progress})
}

// RecalculateObjective recomputes an objective and then its plan.
func RecalculateObjective(ctx context.Context, hub *collection.Hub, objectiveID string) (models.PlanObjective, error) {
	objective, err := objectiveProgress(ctx, hub, objectiveID)
	if err != nil {
		return objective, err
	}
	if _, err := RecalculatePlan(ctx, hub, objective.PlanID); err != nil {
		return objective, err
	}
	return objective, nil
}

// RecalculateAction recomputes an automatic action from its scope items,
// then its objective and plan.
func RecalculateAction(ctx context.Context, hub *collection.Hub, actionID string) (models.PlanAction, error) {
	action, err := store.Get[models.PlanAction](ctx, hub.Store(), actionID)
	if err != nil {
		return action, err
	}
	if action, err = actionProgress(ctx, hub, action); err != nil {
		return action, err
	}
	if _, err := RecalculateObjective(ctx, hub, action.ObjectiveID); err != nil {
		return action, err
	}
	return action, nil
}

// RecalculatePlanTree recomputes every automatic action of a plan, every
// objective and the plan itself.
func RecalculatePlanTree(ctx context.Context, hub *collection.Hub, planID string) (models.StrategicPlan, error) {
	objectives, err := store.Select[models.PlanObjective](ctx, hub.Store(), store.Filter{"plan_id": planID})
	if err != nil {
		return models.StrategicPlan{}, err
	}
	for _, objective := range objectives {
		actions, err := store.Select[models.PlanAction](ctx, hub.Store(), store.Filter{"objective_id": objective.ID})
		if err != nil {
			return models.StrategicPlan{}, err
		}
		for _, action := range actions {
			if _, err := actionProgress(ctx, hub, action); err != nil {
				return models.StrategicPlan{}, err
			}
		}
		if _, err := objectiveProgress(ctx, hub, objective.ID); err != nil {
			return models.StrategicPlan{}, err
		}
	}
	return RecalculatePlan(ctx, hub, planID)
}

// UpdateActionScope changes the quantities of an action scope item and
// recomputes the action, its objective and its plan.
func UpdateActionScope(ctx context.Context, hub *collection.Hub, id string, partial map[string]any) (models.ActionScope, error) {
	scope, err := collection.New[models.ActionScope](hub).Update(ctx, id, partial)
	if err != nil {
		return scope, err
	}
	if _, err := RecalculateAction(ctx, hub, scope.ActionID); err != nil {
		return scope, err
	}
	return scope, nil
}
