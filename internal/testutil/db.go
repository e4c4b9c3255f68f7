// Package testutil builds the in-memory fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/models"
)

// OpenDB returns a migrated in-memory SQLite database. The pool is limited to
// one connection so every query sees the same memory database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")
	return db
}

// TestUser is the identity used by UserContext.
var TestUser = auth.User{ID: "7f3c9a52-1d2e-4b8f-9c6a-5e4d3b2a1f00", Email: "arquivista@example.org", Roles: []string{"user"}}

// UserContext returns a background context carrying TestUser.
func UserContext() context.Context {
	return auth.WithUser(context.Background(), TestUser)
}
