package utils

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/recordsdb/internal/types"
)

func TestPingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.NoError(t, PingService("http://"+ln.Addr().String(), time.Second))
	assert.Error(t, PingService("http://127.0.0.1:1", 500*time.Millisecond))
	assert.ErrorContains(t, PingService("::not a url", time.Second), "invalid URL")
	assert.ErrorContains(t, PingService("/relative", time.Second), "no host")
}

func TestErrorFrom(t *testing.T) {
	app := fiber.New()
	app.Get("/custom", func(c *fiber.Ctx) error {
		return ErrorFrom(c, &types.CustomError{Code: fiber.StatusForbidden, Message: "nope", Type: "records.authorization.user"})
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return ErrorFrom(c, fmt.Errorf("insert tasks: %w", types.Validation("title", "is required")))
	})
	app.Get("/rls", func(c *fiber.Ctx) error {
		return ErrorFrom(c, errors.New("new row violates row-level security policy for table \"tasks\""))
	})

	tests := []struct {
		path   string
		status int
		kind   string
		detail bool
	}{
		{"/custom", fiber.StatusForbidden, "records.authorization.user", false},
		{"/validation", fiber.StatusBadRequest, "validation", true},
		{"/rls", fiber.StatusForbidden, "permission", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), `"type":"`+tt.kind+`"`)
			assert.Contains(t, string(body), `"ok":false`)
			if tt.detail {
				assert.Contains(t, string(body), `"detail":"insert tasks:`)
			} else {
				assert.NotContains(t, string(body), `"detail"`)
				assert.NotContains(t, string(body), "row-level security")
			}
		})
	}
}
