package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/bizsuite/catalog-service/internal/importer"
)

// ImportStats summarizes one observation import
type ImportStats struct {
	Inserted     int
	Skipped      int
	UnknownItems []string
	UnknownLists []string
}

// ImportObservations resolves item and price list codes within the scope and
// appends the rows as new observations. Rows with unknown codes are skipped.
// The insert is all-or-nothing.
func (r *CatalogRepository) ImportObservations(ctx context.Context, scopeID int64, rows []importer.Row) (*ImportStats, error) {
	stats := &ImportStats{}
	if len(rows) == 0 {
		return stats, nil
	}

	itemCodes := make(map[string]struct{})
	listCodes := make(map[string]struct{})
	for _, row := range rows {
		itemCodes[row.ItemCode] = struct{}{}
		listCodes[row.PriceListCode] = struct{}{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	itemIDs, err := lookupCodes(ctx, tx, `
		SELECT DISTINCT ON (code) code, id
		FROM items
		WHERE code = ANY($1::text[])
		ORDER BY code, active DESC, id
	`, keys(itemCodes))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item codes: %w", err)
	}

	listIDs, err := lookupCodes(ctx, tx, `
		SELECT code, id
		FROM price_lists
		WHERE code = ANY($1::text[]) AND scope_id = $2
	`, keys(listCodes), scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price list codes: %w", err)
	}

	unknownItems := make(map[string]struct{})
	unknownLists := make(map[string]struct{})
	copyRows := make([][]any, 0, len(rows))
	for _, row := range rows {
		itemID, okItem := itemIDs[row.ItemCode]
		listID, okList := listIDs[row.PriceListCode]
		if !okItem {
			unknownItems[row.ItemCode] = struct{}{}
		}
		if !okList {
			unknownLists[row.PriceListCode] = struct{}{}
		}
		if !okItem || !okList {
			stats.Skipped++
			continue
		}

		var discount *string
		if !row.Discount.IsZero() {
			d := row.Discount.String()
			discount = &d
		}
		copyRows = append(copyRows, []any{
			itemID, listID, row.Tier, row.Price.String(), discount, row.EffectiveDate,
		})
	}

	if len(copyRows) > 0 {
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"price_observations"},
			[]string{"item_id", "price_list_id", "quantity_tier", "price", "discount_amount", "effective_date"},
			pgx.CopyFromRows(copyRows),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to copy observations: %w", err)
		}
		stats.Inserted = int(n)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	stats.UnknownItems = keys(unknownItems)
	stats.UnknownLists = keys(unknownLists)

	r.logger.Info().
		Int64("scope_id", scopeID).
		Int("inserted", stats.Inserted).
		Int("skipped", stats.Skipped).
		Msg("Imported price observations")
	return stats, nil
}

func lookupCodes(ctx context.Context, tx pgx.Tx, query string, args ...any) (map[string]int64, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var code string
		var id int64
		if err := rows.Scan(&code, &id); err != nil {
			return nil, err
		}
		out[code] = id
	}
	return out, rows.Err()
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
