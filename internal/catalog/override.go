package catalog

import (
	"github.com/shopspring/decimal"
)

// ApplyCostOverride derives export-baseline prices for tiers above an item's
// case size by stepping down from the case-size price:
//
//	price(n) = round(base - n*differential, 2)
//
// where n is the 1-based position of the tier among the item's tiers strictly
// greater than the case size. Only the export-baseline column is read or written.
// The input grid is not modified.
func ApplyCostOverride(g Grid, items []Item, differentials map[int64]decimal.Decimal, exportCode string) (Grid, int) {
	out := g.Clone()
	if exportCode == "" || len(differentials) == 0 {
		return out, 0
	}

	idx := g.index()
	written := 0

	for _, item := range items {
		diff, ok := differentials[item.ID]
		if !ok || !diff.IsPositive() {
			continue
		}
		if item.CaseSize == nil || !item.CaseSize.IsPositive() {
			continue
		}
		caseSize := *item.CaseSize
		if !caseSize.IsInteger() {
			continue // no tier can sit exactly on a fractional case size
		}

		base, ok := g.Lookup(item.ID, caseSize.IntPart(), exportCode)
		if !ok {
			continue
		}

		n := int64(0)
		for _, tier := range idx.tiers(item.ID) {
			if decimal.NewFromInt(tier).LessThanOrEqual(caseSize) {
				continue
			}
			n++

			discount := decimal.Zero
			if existing, ok := out.Lookup(item.ID, tier, exportCode); ok {
				discount = existing.Discount
			}

			step := diff.Mul(decimal.NewFromInt(n))
			out.Set(item.ID, tier, exportCode, Cell{
				Price:    roundMoney(base.Price.Sub(step)),
				Discount: discount,
				Source:   SourceOverride,
			})
			written++
		}
	}

	return out, written
}
