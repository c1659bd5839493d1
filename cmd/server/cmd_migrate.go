package main

import (
	"github.com/spf13/cobra"

	"parkinglot/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		gdb, err := openDatabase()
		if err != nil {
			return err
		}
		logger.Info().Str("backend", string(cfg.DBBackend)).Msg("schema up to date")
		return db.Close(gdb)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
