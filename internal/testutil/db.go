// Package testutil provides in-memory databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"go-trading-post/internal/repository"
	"go-trading-post/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated, private in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, DSN: dsn, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
