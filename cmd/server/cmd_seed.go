package main

import (
	"github.com/spf13/cobra"

	"parkinglot/internal/db"
	"parkinglot/internal/repository"
	"parkinglot/internal/seed"
	"parkinglot/internal/service"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load parkings and spaces from a TOML file",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "lots.toml", "TOML file with [[parking]] tables")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	f, err := seed.Load(seedFile)
	if err != nil {
		return err
	}

	gdb, err := openDatabase()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	parkings := service.NewParkingService(repository.NewStore(gdb), logger)
	res, err := seed.Apply(cmd.Context(), parkings, f, logger)
	if err != nil {
		return err
	}
	logger.Info().
		Int("parkings_created", res.ParkingsCreated).
		Int("spaces_created", res.SpacesCreated).
		Int("spaces_skipped", res.SpacesSkipped).
		Msg("seed complete")
	return nil
}
