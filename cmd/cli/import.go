package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/bizsuite/catalog-service/internal/database"
	"github.com/bizsuite/catalog-service/internal/importer"
)

var (
	importScope     int64
	importEncoding  string
	importDelimiter string
	importSheet     string
	importDryRun    bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import price observations from a CSV or XLSX file",
	Long: `Import dated price observations. The file needs a header row with item code,
price list code, price and effective date columns; quantity tier and discount
amount are optional. Item and price list codes are resolved within the scope.`,
	Example: `  catalog-service import prices.csv --scope 1
  catalog-service import prices.csv --scope 1 --encoding windows-1250 --delimiter ";"
  catalog-service import prices.xlsx --scope 1 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int64Var(&importScope, "scope", 0, "Scope id the price list codes belong to")
	importCmd.Flags().StringVar(&importEncoding, "encoding", "auto", "CSV encoding: auto, utf-8, windows-1250 or iso-8859-2")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV delimiter (detected when empty)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet (active sheet when empty)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and report without writing")
	importCmd.MarkFlagRequired("scope")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	enc, err := importer.ParseEncoding(importEncoding)
	if err != nil {
		return err
	}
	opts := importer.Options{
		Format:   importer.DetectFormat(path),
		Encoding: enc,
		Sheet:    importSheet,
	}
	if importDelimiter != "" {
		if utf8.RuneCountInString(importDelimiter) != 1 {
			return fmt.Errorf("delimiter must be a single character")
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(importDelimiter)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	result, err := importer.Parse(f, opts)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, rowErr := range result.Errors {
		logger.Warn().
			Int("row", rowErr.RowNumber).
			Str("field", rowErr.Field).
			Str("value", rowErr.Value).
			Msg(rowErr.Message)
	}
	logger.Info().
		Int("total", result.TotalRows).
		Int("valid", len(result.Rows)).
		Int("errors", len(result.Errors)).
		Msg("File parsed")

	if importDryRun {
		return nil
	}

	repo := database.NewCatalogRepository(database.Pool())
	stats, err := repo.ImportObservations(context.Background(), importScope, result.Rows)
	if err != nil {
		return err
	}

	if len(stats.UnknownItems) > 0 {
		logger.Warn().Str("codes", strings.Join(stats.UnknownItems, ", ")).Msg("Unknown item codes")
	}
	if len(stats.UnknownLists) > 0 {
		logger.Warn().Str("codes", strings.Join(stats.UnknownLists, ", ")).Msg("Unknown price list codes")
	}
	fmt.Printf("Imported %d observations (%d skipped, %d rejected)\n",
		stats.Inserted, stats.Skipped, len(result.Errors))
	return nil
}
