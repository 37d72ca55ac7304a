package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listExport    int64 = 1
	listWholesale int64 = 5
	listRetail    int64 = 6
	listWeight    int64 = 3
)

// newScenario builds a scope with the wholesale matrix lists and two items.
func newScenario() *memorySources {
	m := newMemorySources()
	m.addList(listExport, "01-EXP")
	m.addList(listWeight, "03-KG")
	m.addList(listWholesale, "05-WHS")
	m.addList(listRetail, "06-RET")
	m.addList(7, "07-HRC")
	m.addItem(10, "A-10", "10")
	m.addItem(11, "A-11", "")
	return m
}

func resolve(t *testing.T, m *memorySources, listID int64, itemIDs ...int64) []ItemGrid {
	t.Helper()
	engine := NewEngine(m.sources(), Defaults())
	grids, err := engine.Resolve(context.Background(), &ResolveRequest{
		PriceListID: listID,
		Filter:      ItemFilter{ItemIDs: itemIDs},
	})
	require.NoError(t, err)
	return grids
}

func findRow(t *testing.T, g ItemGrid, tier int64) GridRow {
	t.Helper()
	for _, r := range g.Ranges {
		if r.Quantity == tier {
			return r
		}
	}
	t.Fatalf("no row for tier %d on item %d", tier, g.ItemID)
	return GridRow{}
}

func TestEngine_OverrideCascade(t *testing.T) {
	m := newScenario()
	m.observe(10, listExport, 10, "100.00", "0", day(1))
	m.observe(10, listWholesale, 20, "90.00", "0", day(1))
	m.observe(10, listWholesale, 30, "85.00", "0", day(1))
	m.differentials[10] = dec("2.50")

	grids := resolve(t, m, listWholesale, 10)
	require.Len(t, grids, 1)

	assert.True(t, findRow(t, grids[0], 20).ExportPrice.Equal(dec("97.50")))
	assert.True(t, findRow(t, grids[0], 30).ExportPrice.Equal(dec("95.00")))
	assert.True(t, findRow(t, grids[0], 30).Columns["01-EXP"].Equal(dec("95.00")))
	assert.Equal(t, int32(1), m.diffCalls.Load())
}

func TestEngine_OverrideRunsBeforeGapFill(t *testing.T) {
	m := newScenario()
	m.observe(10, listExport, 1, "120.00", "0", day(1))
	m.observe(10, listExport, 10, "100.00", "0", day(1))
	m.observe(10, listWholesale, 1, "50.00", "0", day(1))
	m.observe(10, listWholesale, 20, "40.00", "0", day(1))
	m.observe(10, listRetail, 1, "60.00", "0", day(1))
	m.differentials[10] = dec("2.50")

	grids := resolve(t, m, listWholesale, 10)
	require.Len(t, grids, 1)
	row := findRow(t, grids[0], 20)

	// Step-down from the case-size price, not 120 * 40/50
	assert.True(t, row.ExportPrice.Equal(dec("97.50")), "export@20 = %s", row.ExportPrice)
	// The overridden export cell is the first reference: 60 * 97.50/120
	assert.True(t, row.Columns["06-RET"].Equal(dec("48.75")), "retail@20 = %s", row.Columns["06-RET"])
	assert.True(t, row.UnitPrice.Equal(dec("40.00")))
}

func TestEngine_GapFillRatio(t *testing.T) {
	m := newScenario()
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))
	m.observe(10, listWholesale, 5, "8.00", "0", day(1))
	m.observe(10, listRetail, 1, "20.00", "0", day(1))

	grids := resolve(t, m, listWholesale, 10)
	row := findRow(t, grids[0], 5)

	assert.True(t, row.Columns["06-RET"].Equal(dec("16.00")))
	assert.True(t, row.UnitPrice.Equal(dec("8.00")))
}

func TestEngine_DiscountIsolation(t *testing.T) {
	m := newScenario()
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))
	m.observe(10, listRetail, 1, "12.00", "3.00", day(1))

	row := findRow(t, resolve(t, m, listWholesale, 10)[0], 1)
	assert.True(t, row.CostingDiscountAmt.IsZero())

	row = findRow(t, resolve(t, m, listRetail, 10)[0], 1)
	assert.True(t, row.CostingDiscountAmt.Equal(dec("3.00")))
}

func TestEngine_LatestDateDedup(t *testing.T) {
	m := newScenario()
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))
	m.observe(10, listWholesale, 1, "11.00", "0", day(9))
	m.observe(10, listWholesale, 1, "12.00", "0", day(4))

	row := findRow(t, resolve(t, m, listWholesale, 10)[0], 1)
	assert.True(t, row.UnitPrice.Equal(dec("11.00")))
}

func TestEngine_ExclusionEnforced(t *testing.T) {
	m := newScenario()
	m.excluded[11] = true
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))
	m.observe(11, listWholesale, 1, "99.00", "0", day(1))

	grids := resolve(t, m, listWholesale, 10, 11)
	require.Len(t, grids, 1)
	assert.Equal(t, int64(10), grids[0].ItemID)
}

func TestEngine_MissingDataTolerance(t *testing.T) {
	m := newScenario()
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))

	grids := resolve(t, m, listWholesale, 10, 11)
	require.Len(t, grids, 2)
	assert.Equal(t, int64(11), grids[1].ItemID)
	assert.NotNil(t, grids[1].Ranges)
	assert.Empty(t, grids[1].Ranges)

	body, err := json.Marshal(grids[1])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"ranges":[]`)
}

func TestEngine_NoItemsReturnsEmptyGrid(t *testing.T) {
	m := newScenario()
	grids := resolve(t, m, listWholesale, 404)
	assert.Empty(t, grids)
	assert.Equal(t, int32(0), m.diffCalls.Load())
}

func TestEngine_TierMonotonicity(t *testing.T) {
	m := newScenario()
	for _, tier := range []int64{50, 1, 200, 5, 20} {
		m.observe(10, listWholesale, tier, "10.00", "0", day(1))
	}

	grids := resolve(t, m, listWholesale, 10)
	ranges := grids[0].Ranges
	require.Len(t, ranges, 5)
	for i := 1; i < len(ranges); i++ {
		assert.Less(t, ranges[i-1].Quantity, ranges[i].Quantity)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	m := newScenario()
	m.observe(10, listExport, 10, "100.00", "0", day(1))
	m.observe(10, listWholesale, 1, "50.00", "1.00", day(1))
	m.observe(10, listWholesale, 10, "45.00", "0", day(1))
	m.observe(10, listWholesale, 20, "40.00", "0", day(1))
	m.observe(10, listRetail, 1, "60.00", "0", day(1))
	m.observe(10, listWeight, 1, "3.20", "0", day(1))
	m.differentials[10] = dec("1.10")

	first, err := json.Marshal(resolve(t, m, listWholesale, 10, 11))
	require.NoError(t, err)
	second, err := json.Marshal(resolve(t, m, listWholesale, 10, 11))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestEngine_ColumnsFollowMatrix(t *testing.T) {
	m := newScenario()
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))

	row := findRow(t, resolve(t, m, listWholesale, 10)[0], 1)
	assert.ElementsMatch(t, []string{"05-WHS", "06-RET", "02-WEX", "01-EXP", "03-KG"}, keys(row.Columns))
	// 02-WEX has no list in the scope
	assert.Nil(t, row.Columns["02-WEX"])
}

func TestEngine_SkipsDifferentialsWithoutExportList(t *testing.T) {
	m := newMemorySources()
	m.addList(listWholesale, "05-WHS")
	m.addItem(10, "A-10", "10")
	m.observe(10, listWholesale, 1, "10.00", "0", day(1))

	resolve(t, m, listWholesale, 10)
	assert.Equal(t, int32(0), m.diffCalls.Load())
}

func TestEngine_CategoryFilter(t *testing.T) {
	m := newScenario()
	typeID := int64(3)
	m.items[0].TypeID = &typeID
	m.items = append(m.items, Item{ID: 12, Code: "B-12", CategoryID: 2, Active: true})

	engine := NewEngine(m.sources(), Defaults())
	category := int64(1)
	grids, err := engine.Resolve(context.Background(), &ResolveRequest{
		PriceListID: listWholesale,
		Filter:      ItemFilter{CategoryID: &category, TypeIDs: []int64{3}},
	})
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, int64(10), grids[0].ItemID)
}

func TestEngine_ValidationRejectedBeforeSources(t *testing.T) {
	m := newScenario()
	engine := NewEngine(m.sources(), Defaults())

	_, err := engine.Resolve(context.Background(), &ResolveRequest{PriceListID: listWholesale})
	var invalid ErrInvalidRequest
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "itemIds", invalid.Field)

	_, err = engine.Resolve(context.Background(), &ResolveRequest{Filter: ItemFilter{ItemIDs: []int64{10}}})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "priceListId", invalid.Field)

	assert.Equal(t, int32(0), m.resolveCalls.Load())
}

func TestEngine_UnknownPriceList(t *testing.T) {
	m := newScenario()
	engine := NewEngine(m.sources(), Defaults())

	_, err := engine.Resolve(context.Background(), &ResolveRequest{
		PriceListID: 999,
		Filter:      ItemFilter{ItemIDs: []int64{10}},
	})
	assert.ErrorIs(t, err, ErrPriceListNotFound)
	assert.Equal(t, CircuitClosed, engine.BreakerState())
}

func TestEngine_InactivePriceListNotSelectable(t *testing.T) {
	m := newScenario()
	m.lists = append(m.lists, PriceList{ID: 8, Code: "08-DST", ScopeID: 1, Active: false})
	m.observe(10, 8, 1, "10.00", "0", day(1))
	engine := NewEngine(m.sources(), Defaults())

	_, err := engine.Resolve(context.Background(), &ResolveRequest{
		PriceListID: 8,
		Filter:      ItemFilter{ItemIDs: []int64{10}},
	})
	assert.ErrorIs(t, err, ErrPriceListNotFound)
	assert.Equal(t, CircuitClosed, engine.BreakerState())
}

func TestEngine_CancelledRequestDoesNotTripBreaker(t *testing.T) {
	m := newScenario()
	m.itemsErr = context.Canceled
	engine := NewEngine(m.sources(), Defaults())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := &ResolveRequest{PriceListID: listWholesale, Filter: ItemFilter{ItemIDs: []int64{10}}}
	for i := 0; i < DefaultCircuitBreakerConfig().MaxFailures+1; i++ {
		_, err := engine.Resolve(ctx, req)
		require.Error(t, err)
	}
	assert.Equal(t, CircuitClosed, engine.BreakerState())
}

func TestEngine_SourceFailureAborts(t *testing.T) {
	sourceErr := errors.New("connection reset")

	tests := []struct {
		name   string
		mutate func(m *memorySources)
	}{
		{"items", func(m *memorySources) { m.itemsErr = sourceErr }},
		{"observations", func(m *memorySources) { m.observationsErr = sourceErr }},
		{"differentials", func(m *memorySources) { m.diffErr = sourceErr }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newScenario()
			m.observe(10, listWholesale, 1, "10.00", "0", day(1))
			tt.mutate(m)

			engine := NewEngine(m.sources(), Defaults())
			grids, err := engine.Resolve(context.Background(), &ResolveRequest{
				PriceListID: listWholesale,
				Filter:      ItemFilter{ItemIDs: []int64{10}},
			})
			assert.ErrorIs(t, err, sourceErr)
			assert.Nil(t, grids)
		})
	}
}

func TestEngine_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	m := newScenario()
	m.itemsErr = errors.New("timeout")
	engine := NewEngine(m.sources(), Defaults())
	req := &ResolveRequest{PriceListID: listWholesale, Filter: ItemFilter{ItemIDs: []int64{10}}}

	for i := 0; i < DefaultCircuitBreakerConfig().MaxFailures; i++ {
		_, err := engine.Resolve(context.Background(), req)
		require.Error(t, err)
	}
	assert.Equal(t, CircuitOpen, engine.BreakerState())

	_, err := engine.Resolve(context.Background(), req)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func keys(m map[string]*decimal.Decimal) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
