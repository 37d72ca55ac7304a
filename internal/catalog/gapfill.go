package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FillGaps synthesizes prices for lists that only carry a base (tier 1) price.
//
// For every tier of an item other than the base tier, the first code in
// referenceOrder with a positive base price and a price at that tier defines
// ratio = price(tier) / price(base). Every code that has a base price but no
// cell at the tier then receives round(base * ratio, 2) with a zero discount.
// Tiers without a usable reference keep their gaps. Existing cells are never
// overwritten and the input grid is not modified.
//
// Codes present in the grid but missing from referenceOrder are tried after it,
// in lexical order.
func FillGaps(g Grid, referenceOrder []string) (Grid, int) {
	out := g.Clone()
	idx := g.index()
	filled := 0

	for _, itemID := range idx.items() {
		order := referenceCodes(idx[itemID], referenceOrder)

		basePrices := make(map[string]decimal.Decimal)
		for _, code := range order {
			if c, ok := g.Lookup(itemID, BaseTier, code); ok {
				basePrices[code] = c.Price
			}
		}
		if len(basePrices) == 0 {
			continue
		}

		for _, tier := range idx.tiers(itemID) {
			if tier == BaseTier {
				continue
			}

			ratio, ok := referenceRatio(g, itemID, tier, order, basePrices)
			if !ok {
				continue
			}

			for _, code := range order {
				base, hasBase := basePrices[code]
				if !hasBase {
					continue
				}
				if _, exists := out.Lookup(itemID, tier, code); exists {
					continue
				}
				out.Set(itemID, tier, code, Cell{
					Price:    roundMoney(base.Mul(ratio)),
					Discount: decimal.Zero,
					Source:   SourceGapFill,
				})
				filled++
			}
		}
	}

	return out, filled
}

// referenceRatio finds the first code with a positive base price and a price at
// tier, and returns price(tier)/price(base). Candidates with a zero or negative
// base are rejected so no infinite or NaN ratio is produced.
func referenceRatio(g Grid, itemID, tier int64, order []string, basePrices map[string]decimal.Decimal) (decimal.Decimal, bool) {
	for _, code := range order {
		base, ok := basePrices[code]
		if !ok || !base.IsPositive() {
			continue
		}
		c, ok := g.Lookup(itemID, tier, code)
		if !ok {
			continue
		}
		return c.Price.Div(base), true
	}
	return decimal.Zero, false
}

// referenceCodes returns the codes used by an item in the search order.
func referenceCodes(tiers map[int64][]string, referenceOrder []string) []string {
	present := make(map[string]struct{})
	for _, codes := range tiers {
		for _, c := range codes {
			present[c] = struct{}{}
		}
	}

	order := make([]string, 0, len(present))
	for _, c := range referenceOrder {
		if _, ok := present[c]; ok {
			order = append(order, c)
			delete(present, c)
		}
	}

	rest := make([]string, 0, len(present))
	for c := range present {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(order, rest...)
}
