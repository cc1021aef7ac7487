package main

import (
	"fmt"
	"log/slog"
	"os"
	"trajectory-service/internal/adapters/repositories"
	"trajectory-service/internal/config"
	"trajectory-service/internal/platform/db"
	"trajectory-service/internal/platform/obs"
	"trajectory-service/internal/ports"

	"github.com/spf13/cobra"
)

// sqlStore is a plan repository backed by a migratable SQL schema.
type sqlStore interface {
	ports.PlanRepository
	Migrate() error
	SchemaVersion() (uint, bool, error)
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "dbtool",
		Short:         "Manage the trajectory plan database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(initCmd(&configPath))
	rootCmd.AddCommand(seedCmd(&configPath))
	rootCmd.AddCommand(versionCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(*configPath, func(store sqlStore, logger *slog.Logger) error {
				logger.Info("migrating database schema")
				if err := store.Migrate(); err != nil {
					return fmt.Errorf("schema migration failed: %w", err)
				}
				logger.Info("schema ready")
				return nil
			})
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load plans from a JSON file (defaults to SEED_PATH)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seedPath := config.Get("SEED_PATH", "data/seeds/plans.json")
			if len(args) == 1 {
				seedPath = args[0]
			}
			return withStore(*configPath, func(store sqlStore, logger *slog.Logger) error {
				if err := store.Migrate(); err != nil {
					return fmt.Errorf("schema migration failed: %w", err)
				}
				logger.Info("seeding database", "path", seedPath)
				if err := repositories.SeedFromJSON(cmd.Context(), store, seedPath); err != nil {
					return fmt.Errorf("seeding failed: %w", err)
				}
				logger.Info("seeding complete")
				return nil
			})
		},
	}
}

func versionCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(*configPath, func(store sqlStore, _ *slog.Logger) error {
				version, dirty, err := store.SchemaVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
				return nil
			})
		},
	}
}

// withStore opens the configured SQL database and hands the matching plan
// store to fn.
func withStore(configPath string, fn func(sqlStore, *slog.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := obs.NewLogger(cfg.Logging.Level, "text", os.Stderr)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("dbtool: the memory driver has no database to manage")
	}

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	var store sqlStore = repositories.NewSqlitePlanRepository(conn, logger)
	if cfg.Database.Driver == config.DriverPostgres {
		store = repositories.NewSQLPlanRepository(conn, logger)
	}
	logger.Info("database opened", "driver", cfg.Database.Driver)
	return fn(store, logger)
}
