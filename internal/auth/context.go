// Package auth carries the authenticated user through a request context.
package auth

import (
	"context"

	"github.com/localnerve/recordsdb/internal/types"
)

// User is the identity returned by the session validator.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Roles    []string       `json:"roles,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HasRole reports whether the user holds role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type userKey struct{}

// WithUser returns a child context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext extracts the user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	u, ok := ctx.Value(userKey{}).(User)
	if !ok || u.ID == "" {
		return User{}, false
	}
	return u, true
}

// CurrentUser returns the authenticated user or types.ErrAuthRequired.
func CurrentUser(ctx context.Context) (User, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return User{}, types.ErrAuthRequired
	}
	return u, nil
}
