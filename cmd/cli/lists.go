package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bizsuite/catalog-service/internal/database"
)

// listsCmd represents the lists command
var listsCmd = &cobra.Command{
	Use:   "lists <scope-id>",
	Short: "List the active price lists of a scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runLists,
}

// matrixCmd represents the matrix command
var matrixCmd = &cobra.Command{
	Use:   "matrix [code]",
	Short: "Show the column matrix",
	Long: `Show the codes surfaced beside each configured price list code, or beside
a single code when one is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatrix,
}

func init() {
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(matrixCmd)
}

func runLists(cmd *cobra.Command, args []string) error {
	scopeID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid scope id: %s", args[0])
	}

	repo := database.NewCatalogRepository(database.Pool())
	lists, err := repo.ListsInScope(context.Background(), scopeID)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		fmt.Printf("No active price lists in scope %d\n", scopeID)
		return nil
	}

	matrix := cfg.Catalog.ColumnMatrix()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tCOLUMNS")
	fmt.Fprintln(w, "--\t----\t-------")
	for _, l := range lists {
		fmt.Fprintf(w, "%d\t%s\t%s\n", l.ID, l.Code, strings.Join(matrix.Columns(l.Code), ", "))
	}
	return w.Flush()
}

func runMatrix(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return fmt.Errorf("config required for matrix command but not loaded")
	}
	matrix := cfg.Catalog.ColumnMatrix()

	codes := matrix.Codes()
	if len(args) == 1 {
		codes = []string{args[0]}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CODE\tCOLUMNS")
	fmt.Fprintln(w, "----\t-------")
	for _, code := range codes {
		fmt.Fprintf(w, "%s\t%s\n", code, strings.Join(matrix.Columns(code), ", "))
	}
	fmt.Fprintf(w, "\nexport baseline: %s\tweight-based: %s\n", matrix.ExportBaselineCode(), matrix.WeightBasedCode())
	return w.Flush()
}
