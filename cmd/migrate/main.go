package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"expensetracker/internal/config"
	"expensetracker/internal/database"
	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
)

var (
	v   = config.NewViper()
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the credential database and ledger schemas",
		Long: `migrate applies, rolls back and inspects the schema of the shared
credential database, and brings every per-user ledger file up to date.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("driver", "", "credential database driver (sqlite, postgres)")
	flags.String("db-path", "", "credential database file for the sqlite driver")
	flags.String("data-dir", "", "directory holding the ledger files")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	// Unset flags fall back to the environment and then the defaults.
	_ = v.BindPFlag("CREDENTIAL_DB_DRIVER", flags.Lookup("driver"))
	_ = v.BindPFlag("CREDENTIAL_DB_PATH", flags.Lookup("db-path"))
	_ = v.BindPFlag("DATA_DIR", flags.Lookup("data-dir"))
	_ = v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	rootCmd.AddCommand(upCmd(), downCmd(), versionCmd(), ledgersCmd())
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = config.FromViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	return nil
}

// withMigrator opens the credential database and runs fn on its migrator.
func withMigrator(fn func(*migrate.Migrate) error) error {
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer manager.Close()

	mig, err := manager.Migrator()
	if err != nil {
		return err
	}
	defer database.CloseMigrator(mig)

	return fn(mig)
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending credential database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migration up failed: %w", err)
				}
				logger.Get().Info("Migrations applied successfully")
				return nil
			})
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down [N]",
		Short: "Roll back the last N credential database migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q: must be a positive integer", args[0])
				}
				steps = n
			}
			return withMigrator(func(m *migrate.Migrate) error {
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migration down failed: %w", err)
				}
				logger.Get().Infof("Rolled back %d migration(s)", steps)
				return nil
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the credential database schema version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					logger.Get().Info("No migrations applied")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to get version: %w", err)
				}
				logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
				return nil
			})
		},
	}
}

func ledgersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ledgers",
		Short: "Bring every ledger file in the data directory up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := ledger.NewRegistry(cfg.DataDir)
			if err != nil {
				return err
			}
			n, err := registry.MigrateAll(cmd.Context())
			if err != nil {
				return err
			}
			logger.Get().Infof("Migrated %d ledger(s) in %s", n, registry.Dir())
			return nil
		},
	}
}
