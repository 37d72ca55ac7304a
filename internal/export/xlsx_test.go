package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestWriteXLSX(t *testing.T) {
	grids := []catalog.ItemGrid{
		{
			ItemCode:    "B-100",
			Description: "Bolts",
			Ranges: []catalog.GridRow{
				{
					Quantity:           1,
					UnitPrice:          price("13.00"),
					ExportPrice:        price("9.50"),
					CostingDiscountAmt: decimal.RequireFromString("0.25"),
					Columns:            map[string]*decimal.Decimal{"05-WHS": price("13.00"), "06-RET": nil},
				},
				{
					Quantity:           20,
					UnitPrice:          price("11.00"),
					CostingDiscountAmt: decimal.Zero,
					Columns:            map[string]*decimal.Decimal{"05-WHS": price("11.00"), "06-RET": price("12.69")},
				},
			},
		},
		{ItemCode: "A-200", Ranges: []catalog.GridRow{}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, grids, []string{"05-WHS", "06-RET"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per tier")

	assert.Equal(t, []string{
		"Item Code", "Description", "Quantity", "Unit Price", "Weight Price",
		"Export Price", "Discount", "05-WHS", "06-RET",
	}, rows[0])

	assert.Equal(t, "B-100", rows[1][0])
	assert.Equal(t, "1", rows[1][2])

	raw, err := f.GetCellValue(SheetName, "D2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "13", raw)

	weight, err := f.GetCellValue(SheetName, "E2")
	require.NoError(t, err)
	assert.Empty(t, weight)

	ret, err := f.GetCellValue(SheetName, "I3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12.69", ret)
}
