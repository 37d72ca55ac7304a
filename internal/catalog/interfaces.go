package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// ItemCatalog supplies the filtered item set.
type ItemCatalog interface {
	// FindItems returns active items matching the filter, ordered by category,
	// type and display code. Items carrying an exclusion flag are never returned.
	FindItems(ctx context.Context, filter ItemFilter) ([]Item, error)
}

// PriceListDirectory resolves price list ids and codes.
type PriceListDirectory interface {
	// ResolveList returns the price list with the given id, or ErrPriceListNotFound.
	ResolveList(ctx context.Context, id int64) (PriceList, error)

	// ListsByScope returns the active lists of a scope whose codes are in codes.
	// Codes without a list are simply absent from the result.
	ListsByScope(ctx context.Context, scopeID int64, codes []string) ([]PriceList, error)
}

// ObservationStore reads raw price observations.
type ObservationStore interface {
	// LoadObservations returns observations on the given lists for items matching
	// the filter. Several dated observations may exist per (item, list, tier).
	LoadObservations(ctx context.Context, listIDs []int64, filter ItemFilter) ([]PriceObservation, error)
}

// CostDifferentialIndex reads the per-item step cost used by the override pass.
type CostDifferentialIndex interface {
	// Differentials returns the cost differential of each item that has one.
	Differentials(ctx context.Context, itemIDs []int64) (map[int64]decimal.Decimal, error)
}

// Sources bundles the external collaborators of the engine.
type Sources struct {
	Items         ItemCatalog
	Lists         PriceListDirectory
	Observations  ObservationStore
	Differentials CostDifferentialIndex
}

// Resolver computes price grids.
type Resolver interface {
	Resolve(ctx context.Context, req *ResolveRequest) ([]ItemGrid, error)
}
