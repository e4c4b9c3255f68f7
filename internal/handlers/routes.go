package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/middleware"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/services"
)

// Routes lists every table exposed under /api/records and /api/live.
// Tables feeding derived progress recompute it after each mutation.
func Routes() []Route {
	return []Route{
		Resource[models.Organization]{},
		Resource[models.StorageLocation]{},
		Resource[models.TeamMember]{},
		Resource[models.Task]{},
		Resource[models.StrategicPlan]{},
		Resource[models.PlanObjective]{
			AfterChange: func(ctx context.Context, hub *collection.Hub, rec models.PlanObjective, _ bool) error {
				_, err := services.RecalculatePlan(ctx, hub, rec.PlanID)
				return err
			},
		},
		Resource[models.PlanAction]{
			AfterChange: func(ctx context.Context, hub *collection.Hub, rec models.PlanAction, deleted bool) error {
				if deleted {
					_, err := services.RecalculateObjective(ctx, hub, rec.ObjectiveID)
					return err
				}
				_, err := services.RecalculateAction(ctx, hub, rec.ID)
				return err
			},
		},
		Resource[models.ActionScope]{
			AfterChange: func(ctx context.Context, hub *collection.Hub, rec models.ActionScope, _ bool) error {
				_, err := services.RecalculateAction(ctx, hub, rec.ActionID)
				return err
			},
		},
		Resource[models.PlanTeamMember]{},
		Resource[models.Project]{},
		Resource[models.Goal]{
			AfterChange: func(ctx context.Context, hub *collection.Hub, rec models.Goal, deleted bool) error {
				if deleted {
					_, err := services.RecalculateProject(ctx, hub, rec.ProjectID)
					return err
				}
				_, err := services.RecalculateGoal(ctx, hub, rec.ID)
				return err
			},
		},
		Resource[models.GoalScope]{
			AfterChange: func(ctx context.Context, hub *collection.Hub, rec models.GoalScope, _ bool) error {
				_, err := services.RecalculateGoal(ctx, hub, rec.GoalID)
				return err
			},
		},
		Resource[models.CommunityPost]{},
		Resource[models.CommunityReply]{},
		Resource[models.DocumentType]{},
	}
}

// Register mounts the API on app. authn guards every /api route except the
// wiki reference data; admin guards writes to reference data.
func (h *Handler) Register(app *fiber.App, authn, admin fiber.Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api", middleware.VersionMiddleware())
	api.Get("/wiki/document-types", h.DocumentTypes)

	secured := api.Group("", authn)
	secured.Get("/me", h.Me)
	secured.Post("/rpc/:name", h.RPC)

	records := secured.Group("/records")
	live := secured.Group("/live")
	records.Post("/document_types", admin)
	records.Patch("/document_types/:id", admin)
	records.Delete("/document_types/:id", admin)
	for _, route := range Routes() {
		route.Register(records, live, h)
	}

	secured.Get("/organizations/:id/storage", h.ListStorage)
	secured.Get("/organizations/:id/team", h.ListTeam)
	secured.Get("/organizations/:id/dashboard", h.Dashboard)
	secured.Post("/tasks/:id/move", h.MoveTask)
	secured.Post("/community/replies/:id/solution", h.MarkSolution)
	secured.Post("/community/posts/:id/view", h.ViewPost)
	secured.Post("/community/:kind/:id/vote", h.Vote)
	secured.Post("/planning/plans/:id/recalculate", h.RecalculatePlan)
	secured.Patch("/planning/scope/:id", h.UpdateActionScope)
	secured.Patch("/projects/scope/:id", h.UpdateGoalScope)

	app.Use(NotFound)
}
