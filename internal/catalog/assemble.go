package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AssembleOptions names the columns the assembly reads.
type AssembleOptions struct {
	SelectedCode        string
	Columns             []string // Matrix codes in display order
	ExportBaselineCode  string
	WholesaleExportCode string
	WeightBasedCode     string
}

// Assemble projects the resolved grid into one ItemGrid per item, in the order
// the items were given. Every item appears, even when it has no rows.
func Assemble(g Grid, items []Item, opts AssembleOptions) []ItemGrid {
	idx := g.index()

	exportCode := opts.WholesaleExportCode
	if containsCode(opts.Columns, opts.ExportBaselineCode) {
		exportCode = opts.ExportBaselineCode
	}

	out := make([]ItemGrid, 0, len(items))
	for _, item := range items {
		ig := ItemGrid{
			ItemID:        item.ID,
			ItemCode:      item.Code,
			Description:   item.Description,
			CategoryID:    item.CategoryID,
			TypeID:        item.TypeID,
			CaseSize:      item.CaseSize,
			PriceListName: opts.SelectedCode,
			PriceCode:     opts.SelectedCode,
			Ranges:        []GridRow{},
		}

		for _, tier := range idx.tiers(item.ID) {
			row := GridRow{
				ID:                 fmt.Sprintf("%d-%d", item.ID, tier),
				Quantity:           tier,
				UnitPrice:          pricePtr(g, item.ID, tier, opts.SelectedCode),
				WeightPrice:        pricePtr(g, item.ID, tier, opts.WeightBasedCode),
				ExportPrice:        pricePtr(g, item.ID, tier, exportCode),
				CostingDiscountAmt: decimal.Zero,
				Columns:            make(map[string]*decimal.Decimal, len(opts.Columns)),
			}
			if c, ok := g.Lookup(item.ID, tier, opts.SelectedCode); ok {
				row.CostingDiscountAmt = c.Discount
			}
			for _, code := range opts.Columns {
				row.Columns[code] = pricePtr(g, item.ID, tier, code)
			}
			ig.Ranges = append(ig.Ranges, row)
		}

		out = append(out, ig)
	}
	return out
}

func pricePtr(g Grid, itemID, tier int64, code string) *decimal.Decimal {
	if code == "" {
		return nil
	}
	c, ok := g.Lookup(itemID, tier, code)
	if !ok {
		return nil
	}
	p := c.Price
	return &p
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
