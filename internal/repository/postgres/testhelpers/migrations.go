package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/repository/postgres"
)

// ApplyMigrations runs all up migrations from migrationsPath and returns the schema version
func ApplyMigrations(db *sqlx.DB, migrationsPath string) (uint, error) {
	return postgres.NewDBForTest(db, zap.NewNop()).MigrateUp(migrationsPath)
}
