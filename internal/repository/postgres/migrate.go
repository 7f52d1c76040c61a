package postgres

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MigrateUp применяет все новые миграции из каталога.
// Возвращает текущую версию схемы; отсутствие изменений не ошибка.
func (db *DB) MigrateUp(migrationsDir string) (uint, error) {
	m, err := db.newMigrate(migrationsDir)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := db.version(m)
	if err != nil {
		return 0, err
	}
	db.logger.Info("Schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return version, nil
}

// MigrateDown откатывает все миграции
func (db *DB) MigrateDown(migrationsDir string) error {
	m, err := db.newMigrate(migrationsDir)
	if err != nil {
		return err
	}

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// MigrateVersion возвращает версию схемы; 0 если миграции не применялись
func (db *DB) MigrateVersion(migrationsDir string) (uint, bool, error) {
	m, err := db.newMigrate(migrationsDir)
	if err != nil {
		return 0, false, err
	}
	return db.version(m)
}

func (db *DB) version(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrate не закрывается вызывающим: Close закрыл бы общий пул
func (db *DB) newMigrate(migrationsDir string) (*migrate.Migrate, error) {
	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: db.logger.Named("migrate")}

	return m, nil
}

// migrateLogger направляет вывод golang-migrate в zap
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
