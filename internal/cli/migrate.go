package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/config"
	"github.com/spatial-summarize/internal/pkg/logger"
	"github.com/spatial-summarize/internal/repository/postgres"
)

// Migrator - операции над схемой базы слоев
type Migrator interface {
	MigrateUp(dir string) (uint, error)
	MigrateDown(dir string) error
	MigrateVersion(dir string) (uint, bool, error)
	Close() error
}

// MigratorFactory открывает подключение по конфигурации
type MigratorFactory func(cfg *config.Config, log *zap.Logger) (Migrator, error)

// ConnectPostgres - фабрика по умолчанию поверх postgres.New
func ConnectPostgres(cfg *config.Config, log *zap.Logger) (Migrator, error) {
	return postgres.New(&cfg.Database, log)
}

// NewMigrateCommand собирает команду migrate {up|down|version}.
// Настройки подключения читаются из .env, как у api и worker.
func NewMigrateCommand(stdout io.Writer, connect MigratorFactory) *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the layer database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default DB_MIGRATIONS_PATH)")

	withMigrator := func(fn func(cmd *cobra.Command, m Migrator, dir string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Level, logger.WithOutput("stderr"))
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync() //nolint:errcheck

			m, err := connect(cfg, log)
			if err != nil {
				return err
			}
			defer m.Close()

			path := dir
			if path == "" {
				path = cfg.Database.MigrationsPath
			}
			return fn(cmd, m, path)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m Migrator, dir string) error {
				version, err := m.MigrateUp(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m Migrator, dir string) error {
				if err := m.MigrateDown(dir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema reverted")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m Migrator, dir string) error {
				version, dirty, err := m.MigrateVersion(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
				return nil
			}),
		},
	)

	return root
}
