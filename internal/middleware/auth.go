package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/services"
	"github.com/localnerve/recordsdb/internal/types"
)

// SessionCookie is the cookie the authorizer issues.
const SessionCookie = "cookie_session"

// UserKey is the Locals key holding the auth.User of a request.
const UserKey = "user"

// AuthAdmin validates that the request has admin role authorization
func AuthAdmin(v services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, v, []string{"admin"}, "records.authorization.admin")
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser(v services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, v, []string{"user"}, "records.authorization.user")
	}
}

// DevUser attaches a fixed user to every request. It replaces AuthUser when
// authentication is disabled.
func DevUser(user auth.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		setUser(c, user)
		return c.Next()
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, v services.SessionValidator, roles []string, errorType string) error {
	// Get session cookie
	session := c.Cookies(SessionCookie)
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusUnauthorized,
			Message: fmt.Sprintf("Authorizer cookie %q not found", SessionCookie),
			Type:    errorType,
		}
	}

	user, err := v.ValidateSession(c.UserContext(), session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	setUser(c, user)
	return c.Next()
}

func setUser(c *fiber.Ctx, user auth.User) {
	c.Locals(UserKey, user)
	c.SetUserContext(auth.WithUser(c.UserContext(), user))
}

// CurrentUser returns the user attached by AuthUser, AuthAdmin or DevUser.
func CurrentUser(c *fiber.Ctx) (auth.User, bool) {
	user, ok := c.Locals(UserKey).(auth.User)
	return user, ok && user.ID != ""
}
