package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/utils"
)

// RequestLogger logs one line per request. Server errors log at error
// level, client errors at warn.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// write the error response now so the logged status matches
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if rid := c.GetRespHeader(fiber.HeaderXRequestID); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if user, ok := CurrentUser(c); ok {
			fields = append(fields, zap.String("user_id", user.ID))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else if herr, ok := c.Locals(utils.ErrorLocal).(error); ok {
			fields = append(fields, zap.Error(herr))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return nil
	}
}
