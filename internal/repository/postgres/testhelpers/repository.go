package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"github.com/spatial-summarize/internal/domain/repository"
	"github.com/spatial-summarize/internal/repository/postgres"
	"go.uber.org/zap"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewLayerRepositoryForTest creates a layer repository with test database and logger
func NewLayerRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.LayerRepository {
	return postgres.NewLayerRepository(NewDBForTest(db, logger))
}

// NewJobRepositoryForTest creates a summary job repository with test database and logger
func NewJobRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.JobRepository {
	return postgres.NewJobRepository(NewDBForTest(db, logger))
}
