package database

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

// Item exclusion flags. An item carrying any of them is never priced.
const (
	FlagExcludePriceList      = "exclude_price_list"
	FlagExcludeCatalogPricing = "exclude_catalog_pricing"
)

// ExclusionFlags lists every flag that removes an item from the item catalog
var ExclusionFlags = []string{FlagExcludePriceList, FlagExcludeCatalogPricing}

// itemRow mirrors the items table
type itemRow struct {
	ID          int64
	Code        string
	Description string
	CategoryID  int64
	TypeID      *int64
	CaseSize    *string // legacy free text
	Active      bool
}

// priceListRow mirrors the price_lists table
type priceListRow struct {
	ID      int64
	Code    string
	ScopeID int64
	Active  bool
}

// observationRow mirrors the price_observations table
type observationRow struct {
	ID             int64
	ItemID         int64
	PriceListID    int64
	QuantityTier   int64
	Price          string
	DiscountAmount *string
	EffectiveDate  time.Time
}

// toItem converts the row; an unparseable case size becomes absent
func (r itemRow) toItem(logger *zerolog.Logger) catalog.Item {
	item := catalog.Item{
		ID:          r.ID,
		Code:        r.Code,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		TypeID:      r.TypeID,
		Active:      r.Active,
	}
	if r.CaseSize != nil {
		d, err := catalog.ParseAmount(*r.CaseSize)
		if err != nil {
			logger.Warn().Err(err).Int64("item_id", r.ID).Msg("Ignoring malformed case size")
		}
		item.CaseSize = d
	}
	return item
}

func (r priceListRow) toPriceList() catalog.PriceList {
	return catalog.PriceList{ID: r.ID, Code: r.Code, ScopeID: r.ScopeID, Active: r.Active}
}

// toObservation converts the row. ok is false when the price is blank or malformed,
// in which case the observation is treated as absent.
func (r observationRow) toObservation(logger *zerolog.Logger) (catalog.PriceObservation, bool) {
	price, err := catalog.ParseAmount(r.Price)
	if err != nil || price == nil {
		logger.Warn().Err(err).Int64("observation_id", r.ID).Msg("Skipping observation with unusable price")
		return catalog.PriceObservation{}, false
	}

	discount := decimal.Zero
	if r.DiscountAmount != nil {
		d, err := catalog.ParseAmount(*r.DiscountAmount)
		if err != nil {
			logger.Warn().Err(err).Int64("observation_id", r.ID).Msg("Ignoring malformed discount")
		} else if d != nil {
			discount = *d
		}
	}

	return catalog.PriceObservation{
		ID:            r.ID,
		ItemID:        r.ItemID,
		PriceListID:   r.PriceListID,
		Tier:          r.QuantityTier,
		Price:         *price,
		Discount:      discount,
		EffectiveDate: r.EffectiveDate,
	}, true
}
