package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig(cmd)

		db, err := openDatabase(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		logger.Info("migrations completed successfully")
		return nil
	},
}
