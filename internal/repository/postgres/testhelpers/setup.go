package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spatial-summarize/internal/config"
)

// undefinedTable is the PostgreSQL error code for a missing relation
const undefinedTable = "42P01"

// cleanupTables are truncated between tests, children first
var cleanupTables = []string{
	"summary_jobs",
	"layer_features",
	"layers",
}

// TestDB represents a test database connection
type TestDB struct {
	DB      *sqlx.DB
	Logger  *zap.Logger
	PostGIS string
}

// TestDatabaseConfig reads TEST_DB_* variables with local defaults
func TestDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvInt("TEST_DB_PORT", 5433),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:   getEnv("TEST_DB_NAME", "summarize_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// SetupTestDB connects to the test database and skips the test when
// PostgreSQL or PostGIS is not reachable
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	cfg := TestDatabaseConfig()
	db, err := connectWithRetry(t, cfg.DSN(), getEnvInt("TEST_DB_RETRIES", 3))
	if err != nil {
		t.Skipf("Test database %s:%d unavailable: %v", cfg.Host, cfg.Port, err)
	}

	var version string
	if err := db.Get(&version, "SELECT PostGIS_Version()"); err != nil {
		_ = db.Close()
		t.Skipf("PostGIS not available: %v", err)
	}
	t.Logf("PostGIS version: %s", version)

	return &TestDB{
		DB:      db,
		Logger:  zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)),
		PostGIS: version,
	}
}

func connectWithRetry(t *testing.T, dsn string, attempts int) (*sqlx.DB, error) {
	delay := 500 * time.Millisecond

	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err

		if i < attempts-1 {
			t.Logf("Database not ready (attempt %d/%d), waiting %v...", i+1, attempts, delay)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
}

// Cleanup truncates test tables; tables that do not exist yet are ignored
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	var errs []error
	for _, table := range cleanupTables {
		_, err := tdb.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err == nil {
			continue
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
			continue
		}
		errs = append(errs, fmt.Errorf("truncate %s: %w", table, err))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
