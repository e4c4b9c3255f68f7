package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/recordsdb/internal/types"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// ErrorLocal is the fiber local ErrorFrom leaves err under for the request
// logger.
const ErrorLocal = "records.error"

// ErrorFrom sends the error response matching err: custom and fiber errors
// keep their code, everything else is classified. The message of a
// classified error is the user-facing one. Only validation errors carry
// err itself as the detail; the rest is left for the request log.
func ErrorFrom(c *fiber.Ctx, err error) error {
	c.Locals(ErrorLocal, err)

	var custom *types.CustomError
	if errors.As(err, &custom) {
		return ErrorResponse(c, custom.Message, custom.Code, custom.Type)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponse(c, fe.Message, fe.Code, "http")
	}

	kind := types.Classify(err)
	status := types.StatusCode(err)
	res := ErrorResponseStruct{
		Status:    status,
		Message:   types.UserMessage(err),
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      string(kind),
	}
	if kind == types.KindValidation {
		res.Detail = err.Error()
	}
	return c.Status(status).JSON(res)
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, string(types.KindNotFound))
}

// MutationSuccessResponse sends a success response for mutations that
// return no record (DELETE, RPC without result)
func MutationSuccessResponse(c *fiber.Ctx, id string, affectedRows int64) error {
	return c.Status(fiber.StatusOK).JSON(SuccessResponseStruct{
		Message:      "Success",
		Ok:           true,
		ID:           id,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		AffectedRows: affectedRows,
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	ID           string `json:"id,omitempty"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}
