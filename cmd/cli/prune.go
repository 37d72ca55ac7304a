package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bizsuite/catalog-service/internal/database"
	"github.com/bizsuite/catalog-service/internal/sweepers"
)

var pruneRetention time.Duration

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete superseded price observations",
	Long: `Delete observations older than the retention window that a newer observation
for the same item, price list and quantity tier supersedes. Resolved grids are
unchanged by a prune.`,
	Example: `  catalog-service prune
  catalog-service prune --retention 720h`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().DurationVar(&pruneRetention, "retention", 0, "Retention window (defaults to maintenance.observation_retention)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	retention := pruneRetention
	if retention == 0 {
		retention = cfg.Maintenance.ObservationRetention
	}

	repo := database.NewCatalogRepository(database.Pool())
	sweeper := sweepers.NewObservationSweeper(repo, nil, logger, time.Hour, retention)

	deleted, err := sweeper.Sweep(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d superseded observations\n", deleted)
	return nil
}
