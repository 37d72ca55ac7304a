// Package export renders resolved price grids as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

// SheetName is the name of the single worksheet in an exported grid.
const SheetName = "Price Grid"

var fixedHeaders = []string{
	"Item Code", "Description", "Quantity",
	"Unit Price", "Weight Price", "Export Price", "Discount",
}

// WriteXLSX writes one row per (item, quantity tier) followed by one column per
// matrix code. Absent prices are left blank.
func WriteXLSX(w io.Writer, grids []catalog.ItemGrid, columns []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, len(fixedHeaders)+len(columns))
	for _, h := range fixedHeaders {
		header = append(header, h)
	}
	for _, code := range columns {
		header = append(header, code)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColStyle(SheetName, "D:"+lastCol, money); err != nil {
		return fmt.Errorf("failed to style price columns: %w", err)
	}

	rowNum := 2
	for _, g := range grids {
		for _, r := range g.Ranges {
			values := []interface{}{
				g.ItemCode, g.Description, r.Quantity,
				cellValue(r.UnitPrice), cellValue(r.WeightPrice), cellValue(r.ExportPrice),
				r.CostingDiscountAmt.InexactFloat64(),
			}
			for _, code := range columns {
				values = append(values, cellValue(r.Columns[code]))
			}

			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}
