package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

// CatalogRepository reads items, price lists, observations and cost
// differentials from Postgres. It implements every catalog source.
type CatalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a repository over the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{
		pool:   pool,
		logger: log.With().Str("component", "catalog_repository").Logger(),
	}
}

// Sources returns the repository bound to every engine collaborator.
func (r *CatalogRepository) Sources() catalog.Sources {
	return catalog.Sources{Items: r, Lists: r, Observations: r, Differentials: r}
}

// filterArgs flattens an item filter into query parameters. Explicit ids take
// precedence over the category form. Slices are never nil so cardinality() works.
func filterArgs(filter catalog.ItemFilter) (ids []int64, categoryID *int64, typeIDs []int64) {
	if len(filter.ItemIDs) > 0 {
		return filter.ItemIDs, nil, []int64{}
	}
	typeIDs = filter.TypeIDs
	if typeIDs == nil {
		typeIDs = []int64{}
	}
	return []int64{}, filter.CategoryID, typeIDs
}

// itemPredicate selects active, unflagged items matching the filter. Parameters
// $1..$4 are the exclusion flags, item ids, category id and type ids.
const itemPredicate = `
	i.active
	AND NOT EXISTS (
		SELECT 1 FROM item_flags f
		WHERE f.item_id = i.id AND f.flag = ANY($1::text[])
	)
	AND (cardinality($2::bigint[]) = 0 OR i.id = ANY($2::bigint[]))
	AND ($3::bigint IS NULL OR i.category_id = $3::bigint)
	AND (cardinality($4::bigint[]) = 0 OR i.type_id = ANY($4::bigint[]))
`

// FindItems returns the filtered items ordered by category, type and code
func (r *CatalogRepository) FindItems(ctx context.Context, filter catalog.ItemFilter) ([]catalog.Item, error) {
	ids, categoryID, typeIDs := filterArgs(filter)

	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.code, i.description, i.category_id, i.type_id, i.case_size, i.active
		FROM items i
		WHERE `+itemPredicate+`
		ORDER BY i.category_id, i.type_id NULLS FIRST, i.code, i.id
	`, ExclusionFlags, ids, categoryID, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var row itemRow
		if err := rows.Scan(&row.ID, &row.Code, &row.Description, &row.CategoryID,
			&row.TypeID, &row.CaseSize, &row.Active); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, row.toItem(&r.logger))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// ResolveList returns the price list with the given id
func (r *CatalogRepository) ResolveList(ctx context.Context, id int64) (catalog.PriceList, error) {
	var row priceListRow
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, scope_id, active
		FROM price_lists
		WHERE id = $1
	`, id).Scan(&row.ID, &row.Code, &row.ScopeID, &row.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.PriceList{}, catalog.ErrPriceListNotFound
		}
		return catalog.PriceList{}, fmt.Errorf("failed to query price list: %w", err)
	}
	return row.toPriceList(), nil
}

// ListsByScope returns the active lists of a scope whose codes are in codes
func (r *CatalogRepository) ListsByScope(ctx context.Context, scopeID int64, codes []string) ([]catalog.PriceList, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return r.queryLists(ctx, `
		SELECT id, code, scope_id, active
		FROM price_lists
		WHERE scope_id = $1 AND active AND code = ANY($2::text[])
		ORDER BY id
	`, scopeID, codes)
}

// ListsInScope returns every active list of a scope
func (r *CatalogRepository) ListsInScope(ctx context.Context, scopeID int64) ([]catalog.PriceList, error) {
	return r.queryLists(ctx, `
		SELECT id, code, scope_id, active
		FROM price_lists
		WHERE scope_id = $1 AND active
		ORDER BY code, id
	`, scopeID)
}

func (r *CatalogRepository) queryLists(ctx context.Context, query string, args ...any) ([]catalog.PriceList, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price lists: %w", err)
	}
	defer rows.Close()

	var lists []catalog.PriceList
	for rows.Next() {
		var row priceListRow
		if err := rows.Scan(&row.ID, &row.Code, &row.ScopeID, &row.Active); err != nil {
			return nil, fmt.Errorf("failed to scan price list: %w", err)
		}
		lists = append(lists, row.toPriceList())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price lists: %w", err)
	}
	return lists, nil
}

// LoadObservations returns the latest observation per (item, list, tier) for
// items matching the filter. Equal dates are resolved by the highest id.
func (r *CatalogRepository) LoadObservations(ctx context.Context, listIDs []int64, filter catalog.ItemFilter) ([]catalog.PriceObservation, error) {
	if len(listIDs) == 0 {
		return nil, nil
	}
	ids, categoryID, typeIDs := filterArgs(filter)

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (o.item_id, o.price_list_id, o.quantity_tier)
		       o.id, o.item_id, o.price_list_id, o.quantity_tier,
		       o.price, o.discount_amount, o.effective_date
		FROM price_observations o
		JOIN items i ON i.id = o.item_id
		WHERE o.price_list_id = ANY($5::bigint[])
		  AND `+itemPredicate+`
		ORDER BY o.item_id, o.price_list_id, o.quantity_tier,
		         o.effective_date DESC, o.id DESC
	`, ExclusionFlags, ids, categoryID, typeIDs, listIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query price observations: %w", err)
	}
	defer rows.Close()

	var observations []catalog.PriceObservation
	skipped := 0
	for rows.Next() {
		var row observationRow
		if err := rows.Scan(&row.ID, &row.ItemID, &row.PriceListID, &row.QuantityTier,
			&row.Price, &row.DiscountAmount, &row.EffectiveDate); err != nil {
			return nil, fmt.Errorf("failed to scan price observation: %w", err)
		}
		obs, ok := row.toObservation(&r.logger)
		if !ok {
			skipped++
			continue
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price observations: %w", err)
	}

	if skipped > 0 {
		r.logger.Debug().Int("skipped", skipped).Msg("Observations with unusable prices skipped")
	}
	return observations, nil
}

// Differentials returns the cost differential linked to each item
func (r *CatalogRepository) Differentials(ctx context.Context, itemIDs []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal)
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT l.item_id, c.differential
		FROM item_cost_links l
		JOIN cost_components c ON c.id = l.cost_component_id
		WHERE l.item_id = ANY($1::bigint[])
	`, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost differentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var raw *string
		if err := rows.Scan(&itemID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan cost differential: %w", err)
		}
		if raw == nil {
			continue
		}
		d, err := catalog.ParseAmount(*raw)
		if err != nil {
			r.logger.Warn().Err(err).Int64("item_id", itemID).Msg("Ignoring malformed cost differential")
			continue
		}
		if d != nil {
			out[itemID] = *d
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cost differentials: %w", err)
	}
	return out, nil
}

// PruneSupersededObservations deletes observations dated before the cutoff
// that a newer observation on the same (item, list, tier) supersedes. The
// observation each key resolves to is never deleted.
func (r *CatalogRepository) PruneSupersededObservations(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM price_observations o
		WHERE o.effective_date < $1
		  AND EXISTS (
			  SELECT 1
			  FROM price_observations n
			  WHERE n.item_id = o.item_id
			    AND n.price_list_id = o.price_list_id
			    AND n.quantity_tier = o.quantity_tier
			    AND (n.effective_date > o.effective_date
			         OR (n.effective_date = o.effective_date AND n.id > o.id))
		  )
	`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune observations: %w", err)
	}
	return result.RowsAffected(), nil
}
