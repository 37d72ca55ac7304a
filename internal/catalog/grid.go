package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CellSource records which stage produced a cell.
type CellSource int

const (
	SourceObserved CellSource = iota
	SourceOverride
	SourceGapFill
)

// String returns the string representation of the cell source.
func (s CellSource) String() string {
	switch s {
	case SourceObserved:
		return "observed"
	case SourceOverride:
		return "override"
	case SourceGapFill:
		return "gap_fill"
	default:
		return "unknown"
	}
}

// CellKey addresses one price in the grid.
type CellKey struct {
	ItemID int64
	Tier   int64
	Code   string
}

// Cell is a resolved price and discount.
type Cell struct {
	Price    decimal.Decimal
	Discount decimal.Decimal
	Source   CellSource
}

// Grid is the sparse (item, tier, price list code) -> cell map that the
// override and gap-fill passes transform. Passes never mutate their input.
type Grid map[CellKey]Cell

// Clone returns a shallow copy of the grid. Cells are values, so the copy is independent.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// Lookup returns the cell at (itemID, tier, code).
func (g Grid) Lookup(itemID, tier int64, code string) (Cell, bool) {
	c, ok := g[CellKey{ItemID: itemID, Tier: tier, Code: code}]
	return c, ok
}

// Set stores a cell at (itemID, tier, code).
func (g Grid) Set(itemID, tier int64, code string, cell Cell) {
	g[CellKey{ItemID: itemID, Tier: tier, Code: code}] = cell
}

// index groups the keys of the grid by item and tier.
type gridIndex map[int64]map[int64][]string

func (g Grid) index() gridIndex {
	idx := make(gridIndex)
	for k := range g {
		tiers, ok := idx[k.ItemID]
		if !ok {
			tiers = make(map[int64][]string)
			idx[k.ItemID] = tiers
		}
		tiers[k.Tier] = append(tiers[k.Tier], k.Code)
	}
	return idx
}

// Tiers returns the quantity tiers present for an item, ascending.
func (g Grid) Tiers(itemID int64) []int64 {
	seen := make(map[int64]struct{})
	for k := range g {
		if k.ItemID == itemID {
			seen[k.Tier] = struct{}{}
		}
	}
	return sortedTiers(seen)
}

func (idx gridIndex) tiers(itemID int64) []int64 {
	tiers := idx[itemID]
	set := make(map[int64]struct{}, len(tiers))
	for t := range tiers {
		set[t] = struct{}{}
	}
	return sortedTiers(set)
}

func (idx gridIndex) items() []int64 {
	ids := make([]int64, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedTiers(set map[int64]struct{}) []int64 {
	tiers := make([]int64, 0, len(set))
	for t := range set {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

// BuildGrid places authoritative observations into a grid, translating list ids to codes.
// Observations on lists missing from codeByList are dropped.
func BuildGrid(observations []PriceObservation, codeByList map[int64]string) Grid {
	g := make(Grid, len(observations))
	for _, o := range observations {
		code, ok := codeByList[o.PriceListID]
		if !ok {
			continue
		}
		g.Set(o.ItemID, o.Tier, code, Cell{
			Price:    o.Price,
			Discount: o.Discount,
			Source:   SourceObserved,
		})
	}
	return g
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
