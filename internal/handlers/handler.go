// Package handlers is the HTTP surface of the records service.
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/middleware"
	"github.com/localnerve/recordsdb/internal/services"
	"github.com/localnerve/recordsdb/internal/types"
	"github.com/localnerve/recordsdb/internal/utils"
)

// DefaultHeartbeat is the interval of SSE keep-alive comments.
const DefaultHeartbeat = 30 * time.Second

// Handler serves every route. Routes are registered by Register.
type Handler struct {
	Hub       *collection.Hub
	Config    *config.Config
	Logger    *zap.Logger
	Heartbeat time.Duration
}

func (h *Handler) heartbeat() time.Duration {
	if h.Heartbeat <= 0 {
		return DefaultHeartbeat
	}
	return h.Heartbeat
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// ErrorHandler is the app-wide fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return utils.ErrorFrom(c, err)
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}

// Health handles GET /health
// @Summary Service health
// @Description Database, change feed and authorizer status
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *Handler) Health(c *fiber.Ctx) error {
	st := h.Hub.Store()
	result := services.HealthCheck(c.UserContext(), h.Config, st.DB(), st.Feed(), h.logger())
	status := fiber.StatusOK
	if !result.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return utils.SuccessResponse(c, result, status)
}

// Me handles GET /api/me
// @Summary Current user
// @Description The user resolved from the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.User
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.ErrorFrom(c, types.ErrAuthRequired)
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// RPC handles POST /api/rpc/:name
// @Summary Run a store procedure
// @Description Runs a registered procedure in one transaction
// @Tags RPC
// @Accept json
// @Produce json
// @Param name path string true "Procedure name"
// @Param args body map[string]interface{} false "Procedure arguments"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /rpc/{name} [post]
func (h *Handler) RPC(c *fiber.Ctx) error {
	name := c.Params("name")
	args := map[string]any{}
	if len(c.Body()) > 0 {
		var err error
		if args, err = decodeObject(c); err != nil {
			return utils.ErrorFrom(c, err)
		}
	}

	result, err := h.Hub.RPC(c.UserContext(), name, args, services.ProcedureTables[name]...)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) && services.ProcedureTables[name] == nil {
			return utils.NotFoundResponse(c, "Unknown procedure '"+name+"'")
		}
		return utils.ErrorFrom(c, err)
	}
	if result == nil {
		return utils.MutationSuccessResponse(c, "", 0)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}
