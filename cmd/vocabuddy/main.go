package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vocabuddy/internal/config"
	"vocabuddy/internal/database"
)

var rootCmd = &cobra.Command{
	Use:           "vocabuddy",
	Short:         "Vocabulary practice backend",
	Long:          "Vocabuddy selects the words a learner should practice next and tracks practice sessions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to an env file applied before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration honoring --env-file and installs the logger
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg := config.Load(envFile)
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	return cfg, logger
}

// openDatabase connects and brings the schema up to date
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("database connection established", "type", db.GetDialect().DriverName())

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
