package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/importer"
	"github.com/bizsuite/catalog-service/internal/migrations"
)

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	sqlDB, err := migrations.Open(connStr)
	require.NoError(t, err)
	require.NoError(t, migrations.Up(ctx, sqlDB), "Failed to run migrations")
	version, err := migrations.Version(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	sqlDB.Close()

	pool, err := NewPool(ctx, connStr, PoolOptions{MaxConns: 5})
	require.NoError(t, err, "Failed to create connection pool")

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(context.Background())
	}
	return pool, cleanup
}

// seedCatalog creates scope 1 with four lists and three items; item 3 is flagged.
func seedCatalog(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
		INSERT INTO price_lists (id, code, scope_id, active) VALUES
			(1, '01-EXP', 1, TRUE),
			(3, '03-KG',  1, TRUE),
			(5, '05-WHS', 1, TRUE),
			(6, '06-RET', 1, TRUE),
			(9, '05-WHS', 2, TRUE),
			(10, '07-HRC', 1, FALSE);

		INSERT INTO items (id, code, description, category_id, type_id, case_size, active) VALUES
			(1, 'B-100', 'Bolts',   7, 2,    '10',   TRUE),
			(2, 'A-200', 'Anchors', 7, NULL, 'n/a',  TRUE),
			(3, 'C-300', 'Clamps',  7, 2,    '5',    TRUE),
			(4, 'D-400', 'Dowels',  7, 2,    '1',    FALSE);

		INSERT INTO item_flags (item_id, flag) VALUES (3, 'exclude_catalog_pricing');

		INSERT INTO price_observations
			(item_id, price_list_id, quantity_tier, price, discount_amount, effective_date) VALUES
			(1, 1, 10, '100,00', NULL,   '2024-01-01'),
			(1, 5, 1,  '12.00',  '0.50', '2024-01-01'),
			(1, 5, 1,  '13.00',  '0.25', '2024-03-01'),
			(1, 5, 20, '11.00',  NULL,   '2024-01-01'),
			(1, 5, 30, '10.50',  NULL,   '2024-01-01'),
			(1, 6, 1,  '15,00 EUR', '',  '2024-01-01'),
			(2, 5, 1,  'call us', NULL,  '2024-01-01'),
			(3, 5, 1,  '9.00',   NULL,   '2024-01-01');

		INSERT INTO cost_components (id, code, differential) VALUES (1, 'STEEL', '2.50'), (2, 'NONE', NULL);
		INSERT INTO item_cost_links (item_id, cost_component_id) VALUES (1, 1), (2, 2);
	`)
	require.NoError(t, err, "Failed to seed catalog")
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	seedCatalog(ctx, t, pool)

	repo := NewCatalogRepository(pool)
	category := int64(7)

	t.Run("find items excludes flagged and inactive", func(t *testing.T) {
		items, err := repo.FindItems(ctx, catalog.ItemFilter{CategoryID: &category})
		require.NoError(t, err)
		require.Len(t, items, 2)

		// NULL type sorts first
		assert.Equal(t, "A-200", items[0].Code)
		assert.Nil(t, items[0].CaseSize, "malformed case size is absent")
		assert.Equal(t, "B-100", items[1].Code)
		require.NotNil(t, items[1].CaseSize)
		assert.True(t, items[1].CaseSize.Equal(decimal.NewFromInt(10)))
	})

	t.Run("find items by ids", func(t *testing.T) {
		items, err := repo.FindItems(ctx, catalog.ItemFilter{ItemIDs: []int64{1, 3}})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(1), items[0].ID)
	})

	t.Run("find items by type", func(t *testing.T) {
		items, err := repo.FindItems(ctx, catalog.ItemFilter{CategoryID: &category, TypeIDs: []int64{2}})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "B-100", items[0].Code)
	})

	t.Run("resolve list", func(t *testing.T) {
		list, err := repo.ResolveList(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "05-WHS", list.Code)
		assert.Equal(t, int64(1), list.ScopeID)

		_, err = repo.ResolveList(ctx, 404)
		assert.ErrorIs(t, err, catalog.ErrPriceListNotFound)
	})

	t.Run("lists by scope", func(t *testing.T) {
		lists, err := repo.ListsByScope(ctx, 1, []string{"05-WHS", "06-RET", "02-WEX", "07-HRC"})
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.Equal(t, int64(5), lists[0].ID)
		assert.Equal(t, int64(6), lists[1].ID)

		all, err := repo.ListsInScope(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("load observations keeps latest and skips unusable", func(t *testing.T) {
		obs, err := repo.LoadObservations(ctx, []int64{1, 5, 6}, catalog.ItemFilter{CategoryID: &category})
		require.NoError(t, err)

		byKey := make(map[[3]int64]catalog.PriceObservation)
		for _, o := range obs {
			byKey[[3]int64{o.ItemID, o.PriceListID, o.Tier}] = o
			assert.NotEqual(t, int64(3), o.ItemID, "flagged item must not load")
		}
		assert.Len(t, obs, 5)

		latest := byKey[[3]int64{1, 5, 1}]
		assert.Equal(t, "13", latest.Price.String())
		assert.Equal(t, "0.25", latest.Discount.String())

		assert.Equal(t, "15", byKey[[3]int64{1, 6, 1}].Price.String())
		assert.True(t, byKey[[3]int64{1, 6, 1}].Discount.IsZero())
		assert.Equal(t, "100", byKey[[3]int64{1, 1, 10}].Price.String())

		_, hasBad := byKey[[3]int64{2, 5, 1}]
		assert.False(t, hasBad)
	})

	t.Run("differentials", func(t *testing.T) {
		diffs, err := repo.Differentials(ctx, []int64{1, 2, 3})
		require.NoError(t, err)
		require.Len(t, diffs, 1)
		assert.Equal(t, "2.5", diffs[1].String())
	})

	t.Run("engine over repository", func(t *testing.T) {
		engine := catalog.NewEngine(repo.Sources(), catalog.Defaults())
		grids, err := engine.Resolve(ctx, &catalog.ResolveRequest{
			PriceListID: 5,
			Filter:      catalog.ItemFilter{ItemIDs: []int64{1, 2, 3}},
		})
		require.NoError(t, err)
		require.Len(t, grids, 2)

		bolts := grids[1]
		assert.Equal(t, "05-WHS", bolts.PriceCode)
		require.Len(t, bolts.Ranges, 4)

		tiers := make(map[int64]catalog.GridRow)
		for _, r := range bolts.Ranges {
			tiers[r.Quantity] = r
		}
		assert.Equal(t, "97.5", tiers[20].ExportPrice.String())
		assert.Equal(t, "95", tiers[30].ExportPrice.String())
		assert.Equal(t, "0.25", tiers[1].CostingDiscountAmt.String())

		// 06-RET only has a base price; tier 20 is filled from 05-WHS (11/13)
		require.NotNil(t, tiers[20].Columns["06-RET"])
		assert.Equal(t, "12.69", tiers[20].Columns["06-RET"].StringFixed(2))

		assert.Empty(t, grids[0].Ranges)
	})

	t.Run("prune superseded observations", func(t *testing.T) {
		// 05-WHS tier 1 has two observations; the 2024-01-01 one is superseded
		deleted, err := repo.PruneSupersededObservations(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = repo.PruneSupersededObservations(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted, "latest observations are kept")

		obs, err := repo.LoadObservations(ctx, []int64{5}, catalog.ItemFilter{ItemIDs: []int64{1}})
		require.NoError(t, err)
		assert.Len(t, obs, 3)
	})

	// Runs last: it appends newer observations for item 1
	t.Run("import observations", func(t *testing.T) {
		result, err := importer.Parse(strings.NewReader(
			"item;price list;tier;price;discount;date\n"+
				"B-100;05-WHS;1;14,00;0,10;2024-06-01\n"+
				"B-100;05-WHS;50;9,00;;2024-06-01\n"+
				"Z-999;05-WHS;1;1,00;;2024-06-01\n"+
				"B-100;09-NOPE;1;1,00;;2024-06-01\n",
		), importer.Options{})
		require.NoError(t, err)
		require.Len(t, result.Rows, 4)

		stats, err := repo.ImportObservations(ctx, 1, result.Rows)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Inserted)
		assert.Equal(t, 2, stats.Skipped)
		assert.Equal(t, []string{"Z-999"}, stats.UnknownItems)
		assert.Equal(t, []string{"09-NOPE"}, stats.UnknownLists)

		obs, err := repo.LoadObservations(ctx, []int64{5}, catalog.ItemFilter{ItemIDs: []int64{1}})
		require.NoError(t, err)
		byTier := make(map[int64]catalog.PriceObservation)
		for _, o := range obs {
			byTier[o.Tier] = o
		}
		assert.Equal(t, "14", byTier[1].Price.String())
		assert.Equal(t, "0.1", byTier[1].Discount.String())
		assert.Equal(t, "9", byTier[50].Price.String())
	})
}
