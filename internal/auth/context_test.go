package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/recordsdb/internal/types"
)

func TestCurrentUser(t *testing.T) {
	_, err := CurrentUser(context.Background())
	assert.ErrorIs(t, err, types.ErrAuthRequired)

	_, err = CurrentUser(WithUser(context.Background(), User{}))
	assert.ErrorIs(t, err, types.ErrAuthRequired, "a user without id is anonymous")

	ctx := WithUser(context.Background(), User{ID: "u-1", Roles: []string{"user"}})
	u, err := CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.True(t, u.HasRole("user"))
	assert.False(t, u.HasRole("admin"))
}
