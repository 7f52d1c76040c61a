package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spatial-summarize/internal/config"
	"go.uber.org/zap"
)

const (
	connectTimeout  = 5 * time.Second
	applicationName = "spatial-summarize"
)

// DB - пул подключений к PostgreSQL с PostGIS
type DB struct {
	*sqlx.DB
	logger         *zap.Logger
	postgisVersion string
}

// New подключается к базе и проверяет наличие PostGIS
func New(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := fmt.Sprintf("%s application_name=%s", cfg.DSN(), applicationName)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Connection pool settings
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Без PostGIS слои не сохранить
	var version string
	if err := db.GetContext(ctx, &version, "SELECT PostGIS_Version()"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgis is not available: %w", err)
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
		zap.String("postgis", version),
	)

	return &DB{DB: db, logger: logger, postgisVersion: version}, nil
}

func (db *DB) Close() error {
	db.logger.Info("Closing PostgreSQL connection")
	return db.DB.Close()
}

func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// PostGISVersion возвращает версию PostGIS, полученную при подключении
func (db *DB) PostGISVersion() string {
	return db.postgisVersion
}

// InTx выполняет fn в транзакции; ошибка fn или паника откатывают ее
func (db *DB) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewDBForTest creates a DB instance for testing with provided database and logger
func NewDBForTest(sqlxDB *sqlx.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		DB:     sqlxDB,
		logger: logger,
	}
}
