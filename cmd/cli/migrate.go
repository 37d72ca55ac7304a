package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizsuite/catalog-service/config"
	"github.com/bizsuite/catalog-service/internal/migrations"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down|status>",
	Short:     "Apply or roll back database migrations",
	Example:   "  catalog-service migrate up\n  catalog-service migrate status",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	db, err := migrations.Open(dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	switch args[0] {
	case "up":
		err = migrations.Up(ctx, db)
	case "down":
		err = migrations.Down(ctx, db)
	case "status":
	default:
		return fmt.Errorf("unknown migrate action: %s (use up, down or status)", args[0])
	}
	if err != nil {
		return err
	}

	version, err := migrations.Version(ctx, db)
	if err != nil {
		return err
	}
	logger.Info().Int64("version", version).Msg("Schema version")
	return nil
}
