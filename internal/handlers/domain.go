package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/recordsdb/internal/services"
	"github.com/localnerve/recordsdb/internal/types"
	"github.com/localnerve/recordsdb/internal/utils"
)

// ListStorage handles GET /api/organizations/:id/storage
// @Summary List storage locations
// @Description Storage locations of an organization with capacity label and utilization class
// @Tags Storage
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {array} services.StorageView
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /organizations/{id}/storage [get]
func (h *Handler) ListStorage(c *fiber.Ctx) error {
	views, err := services.ListStorage(c.UserContext(), h.Hub, c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, views, fiber.StatusOK)
}

// ListTeam handles GET /api/organizations/:id/team?status=
// @Summary List team members
// @Description Members of an organization with derived status, optionally filtered by it
// @Tags Team
// @Produce json
// @Param id path string true "Organization ID"
// @Param status query string false "ativo or inativo"
// @Success 200 {array} services.MemberView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /organizations/{id}/team [get]
func (h *Handler) ListTeam(c *fiber.Ctx) error {
	members, err := services.ListTeam(c.UserContext(), h.Hub, c.Params("id"), c.Query("status"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, members, fiber.StatusOK)
}

// Dashboard handles GET /api/organizations/:id/dashboard
// @Summary Task dashboard
// @Description Task counters and board columns of an organization
// @Tags Tasks
// @Produce json
// @Param id path string true "Organization ID"
// @Param today query string false "Reference date YYYY-MM-DD for overdue tasks"
// @Success 200 {object} services.Dashboard
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /organizations/{id}/dashboard [get]
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	day, err := today(c)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	dash, err := services.TaskDashboard(c.UserContext(), h.Hub, c.Params("id"), day)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, dash, fiber.StatusOK)
}

type moveRequest struct {
	ColumnID string `json:"column_id"`
}

// MoveTask handles POST /api/tasks/:id/move
// @Summary Move a task
// @Description Place a task in another board column
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param move body moveRequest true "Target column"
// @Success 200 {object} models.Task
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /tasks/{id}/move [post]
func (h *Handler) MoveTask(c *fiber.Ctx) error {
	var req moveRequest
	if err := decodeRecord(c, &req); err != nil {
		return utils.ErrorFrom(c, err)
	}
	task, err := services.MoveTask(c.UserContext(), h.Hub, c.Params("id"), req.ColumnID)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, task, fiber.StatusOK)
}

// MarkSolution handles POST /api/community/replies/:id/solution
// @Summary Accept a reply
// @Description Mark a reply as the solution of its post; the post becomes solved
// @Tags Community
// @Produce json
// @Param id path string true "Reply ID"
// @Success 200 {object} models.CommunityReply
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /community/replies/{id}/solution [post]
func (h *Handler) MarkSolution(c *fiber.Ctx) error {
	reply, err := services.MarkSolution(c.UserContext(), h.Hub, c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, reply, fiber.StatusOK)
}

// ViewPost handles POST /api/community/posts/:id/view
// @Summary Count a post view
// @Tags Community
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.CommunityPost
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /community/posts/{id}/view [post]
func (h *Handler) ViewPost(c *fiber.Ctx) error {
	post, err := services.IncrementViews(c.UserContext(), h.Hub, c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, post, fiber.StatusOK)
}

type voteRequest struct {
	Delta types.FlexInt `json:"delta"`
}

// Vote handles POST /api/community/:kind/:id/vote
// @Summary Vote on a post or reply
// @Tags Community
// @Accept json
// @Produce json
// @Param kind path string true "posts or replies"
// @Param id path string true "Post or reply ID"
// @Param vote body voteRequest true "1 or -1"
// @Success 200 {object} map[string]int
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /community/{kind}/{id}/vote [post]
func (h *Handler) Vote(c *fiber.Ctx) error {
	var kind string
	switch c.Params("kind") {
	case "posts":
		kind = "post"
	case "replies":
		kind = "reply"
	default:
		return utils.ErrorFrom(c, types.Validation("kind", "must be posts or replies"))
	}
	var req voteRequest
	if err := decodeRecord(c, &req); err != nil {
		return utils.ErrorFrom(c, err)
	}
	votes, err := services.Vote(c.UserContext(), h.Hub, kind, c.Params("id"), req.Delta.Int())
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, fiber.Map{"votes": votes}, fiber.StatusOK)
}

// RecalculatePlan handles POST /api/planning/plans/:id/recalculate
// @Summary Recalculate plan progress
// @Description Recompute every automatic action, every objective and the plan
// @Tags Planning
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} models.StrategicPlan
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /planning/plans/{id}/recalculate [post]
func (h *Handler) RecalculatePlan(c *fiber.Ctx) error {
	if err := h.Hub.Authorize(c.UserContext()); err != nil {
		return utils.ErrorFrom(c, err)
	}
	plan, err := services.RecalculatePlanTree(c.UserContext(), h.Hub, c.Params("id"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, plan, fiber.StatusOK)
}

// UpdateActionScope handles PATCH /api/planning/scope/:id
// @Summary Update an action scope item
// @Description Change quantities and recompute action, objective and plan progress
// @Tags Planning
// @Accept json
// @Produce json
// @Param id path string true "Scope item ID"
// @Param partial body map[string]interface{} true "Columns to change"
// @Success 200 {object} models.ActionScope
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /planning/scope/{id} [patch]
func (h *Handler) UpdateActionScope(c *fiber.Ctx) error {
	partial, err := decodeObject(c)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	scope, err := services.UpdateActionScope(c.UserContext(), h.Hub, c.Params("id"), partial)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, scope, fiber.StatusOK)
}

// UpdateGoalScope handles PATCH /api/projects/scope/:id
// @Summary Update a goal scope item
// @Description Change quantities and recompute goal and project progress
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Scope item ID"
// @Param partial body map[string]interface{} true "Columns to change"
// @Success 200 {object} models.GoalScope
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/scope/{id} [patch]
func (h *Handler) UpdateGoalScope(c *fiber.Ctx) error {
	partial, err := decodeObject(c)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	scope, err := services.UpdateGoalScope(c.UserContext(), h.Hub, c.Params("id"), partial)
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, scope, fiber.StatusOK)
}

// DocumentTypes handles GET /api/wiki/document-types
// @Summary List document types
// @Description Retention schedule entries filtered by destination and text
// @Tags Wiki
// @Produce json
// @Param destination query string false "Eliminação or Guarda Permanente"
// @Param q query string false "Matches code, name, family or species"
// @Success 200 {array} models.DocumentType
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /wiki/document-types [get]
func (h *Handler) DocumentTypes(c *fiber.Ctx) error {
	docs, err := services.ListDocumentTypes(c.UserContext(), h.Hub, c.Query("destination"), c.Query("q"))
	if err != nil {
		return utils.ErrorFrom(c, err)
	}
	return utils.SuccessResponse(c, docs, fiber.StatusOK)
}
