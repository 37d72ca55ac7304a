package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/database"
	"github.com/bizsuite/catalog-service/internal/export"
)

var (
	gridItems      []int64
	gridCategory   int64
	gridTypes      []int64
	gridOutput     string
	gridOutputFile string
	gridLocale     string
)

// gridCmd represents the grid command
var gridCmd = &cobra.Command{
	Use:   "grid <price-list-id>",
	Short: "Resolve the price grid for a price list",
	Long: `Resolve the quantity-tier price grid for the selected price list and a set of
items, selected either by id or by category and optional types.

Output can be a human-readable table (default), JSON, or an XLSX workbook.`,
	Example: `  catalog-service grid 5 --items 10,11
  catalog-service grid 5 --category 7 --types 2 --output json
  catalog-service grid 5 --category 7 --output xlsx --file grid.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().Int64SliceVar(&gridItems, "items", nil, "Item ids")
	gridCmd.Flags().Int64Var(&gridCategory, "category", 0, "Category id")
	gridCmd.Flags().Int64SliceVar(&gridTypes, "types", nil, "Type ids (with --category)")
	gridCmd.Flags().StringVar(&gridOutput, "output", "table", "Output format: table, json or xlsx")
	gridCmd.Flags().StringVar(&gridOutputFile, "file", "", "Output file (required for xlsx)")
	gridCmd.Flags().StringVar(&gridLocale, "locale", "en", "Locale used to format table prices")
}

func runGrid(cmd *cobra.Command, args []string) error {
	listID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid price list id: %s", args[0])
	}

	req := &catalog.ResolveRequest{
		PriceListID: listID,
		Filter:      catalog.ItemFilter{ItemIDs: gridItems, TypeIDs: gridTypes},
	}
	if gridCategory != 0 {
		req.Filter.CategoryID = &gridCategory
	}

	repo := database.NewCatalogRepository(database.Pool())
	engine := catalog.NewEngine(repo.Sources(), &cfg.Catalog)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.LoadTimeout)
	defer cancel()

	grids, err := engine.Resolve(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to resolve price grid: %w", err)
	}

	logger.Info().Int64("price_list_id", listID).Msgf("Resolved %d items", len(grids))

	var columns []string
	if len(grids) > 0 {
		columns = engine.Matrix().Columns(grids[0].PriceCode)
	}

	switch strings.ToLower(gridOutput) {
	case "table":
		tag, err := language.Parse(gridLocale)
		if err != nil {
			return fmt.Errorf("invalid locale: %s", gridLocale)
		}
		writeGridTable(os.Stdout, message.NewPrinter(tag), grids, columns)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(grids)
	case "xlsx":
		if gridOutputFile == "" {
			return fmt.Errorf("--file is required for xlsx output")
		}
		f, err := os.Create(gridOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", gridOutputFile, err)
		}
		defer f.Close()
		if err := export.WriteXLSX(f, grids, columns); err != nil {
			return err
		}
		logger.Info().Str("file", gridOutputFile).Msg("Workbook written")
	default:
		return fmt.Errorf("invalid output format: %s (use 'table', 'json' or 'xlsx')", gridOutput)
	}

	return nil
}

func writeGridTable(out io.Writer, p *message.Printer, grids []catalog.ItemGrid, columns []string) {
	if len(grids) == 0 {
		fmt.Fprintln(out, "No items matched")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	header := []string{"ITEM", "QTY", "UNIT", "WEIGHT", "EXPORT", "DISCOUNT"}
	header = append(header, columns...)
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")

	for _, g := range grids {
		if len(g.Ranges) == 0 {
			fmt.Fprintf(w, "%s\t-\t\n", g.ItemCode)
			continue
		}
		for _, r := range g.Ranges {
			cells := []string{
				g.ItemCode,
				p.Sprintf("%d", r.Quantity),
				formatMoney(p, r.UnitPrice),
				formatMoney(p, r.WeightPrice),
				formatMoney(p, r.ExportPrice),
				formatMoney(p, &r.CostingDiscountAmt),
			}
			for _, code := range columns {
				cells = append(cells, formatMoney(p, r.Columns[code]))
			}
			fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
		}
	}
	w.Flush()
}

func formatMoney(p *message.Printer, d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return p.Sprintf("%.2f", d.InexactFloat64())
}
