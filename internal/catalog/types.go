package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BaseTier is the quantity tier that carries a list's base price.
const BaseTier int64 = 1

var (
	// ErrPriceListNotFound is returned when the selected price list id does not resolve.
	ErrPriceListNotFound = errors.New("price list not found")

	// ErrSourceUnavailable is returned while the source circuit breaker is open.
	ErrSourceUnavailable = errors.New("catalog sources unavailable")
)

// Item is an item master record as supplied by the item catalog.
type Item struct {
	ID          int64
	Code        string           // Display code
	Description string
	CategoryID  int64
	TypeID      *int64
	CaseSize    *decimal.Decimal // Packaging-unit quantity, nil when absent or unparseable
	Active      bool
}

// PriceList is a named column of prices within a company scope.
type PriceList struct {
	ID      int64
	Code    string
	ScopeID int64
	Active  bool
}

// PriceObservation is one dated price at a quantity break.
type PriceObservation struct {
	ID            int64
	ItemID        int64
	PriceListID   int64
	Tier          int64
	Price         decimal.Decimal
	Discount      decimal.Decimal
	EffectiveDate time.Time
}

// ItemFilter selects items either by explicit ids or by category and optional types.
type ItemFilter struct {
	ItemIDs    []int64
	CategoryID *int64
	TypeIDs    []int64
}

// IsEmpty reports whether neither filter form was supplied.
func (f ItemFilter) IsEmpty() bool {
	return len(f.ItemIDs) == 0 && f.CategoryID == nil
}

// ResolveRequest contains the parameters of one price grid computation.
type ResolveRequest struct {
	PriceListID int64
	Filter      ItemFilter
}

// Validate checks the request before any source is read.
func (r *ResolveRequest) Validate() error {
	if r.PriceListID <= 0 {
		return ErrInvalidRequest{Field: "priceListId", Reason: "is required"}
	}
	if r.Filter.IsEmpty() {
		return ErrInvalidRequest{Field: "itemIds", Reason: "either itemIds or categoryId must be supplied"}
	}
	for i, id := range r.Filter.ItemIDs {
		if id <= 0 {
			return ErrInvalidRequest{Field: "itemIds", Reason: fmt.Sprintf("item at index %d has invalid id", i)}
		}
	}
	if r.Filter.CategoryID != nil && *r.Filter.CategoryID <= 0 {
		return ErrInvalidRequest{Field: "categoryId", Reason: "must be positive"}
	}
	return nil
}

// GridRow is one resolved (item, quantity tier) row of the output.
// Amounts are serialized as decimal strings ("97.5") to keep exact values;
// absent prices are null.
type GridRow struct {
	ID                 string                      `json:"id" example:"10-20"`
	Quantity           int64                       `json:"quantity" example:"20"`
	UnitPrice          *decimal.Decimal            `json:"unitPrice" swaggertype:"string" example:"40"`
	WeightPrice        *decimal.Decimal            `json:"weightPrice" swaggertype:"string" example:"3.2"`
	ExportPrice        *decimal.Decimal            `json:"exportPrice" swaggertype:"string" example:"97.5"`
	CostingDiscountAmt decimal.Decimal             `json:"costingDiscountAmt" swaggertype:"string" example:"0"`
	Columns            map[string]*decimal.Decimal `json:"columns" swaggertype:"object,string"`
}

// ItemGrid is the per-item output object carrying its price ranges.
type ItemGrid struct {
	ItemID        int64            `json:"itemId"`
	ItemCode      string           `json:"itemCode"`
	Description   string           `json:"description"`
	CategoryID    int64            `json:"categoryId"`
	TypeID        *int64           `json:"typeId"`
	CaseSize      *decimal.Decimal `json:"caseSize"`
	PriceListName string           `json:"priceListName"`
	PriceCode     string           `json:"priceCode"`
	Ranges        []GridRow        `json:"ranges"`
}

// ErrInvalidRequest is returned when the resolve request is invalid.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}
