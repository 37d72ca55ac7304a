package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/export"
)

// stubResolver records the last request and returns canned grids or an error.
type stubResolver struct {
	mu    sync.Mutex
	last  *catalog.ResolveRequest
	grids []catalog.ItemGrid
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, req *catalog.ResolveRequest) ([]catalog.ItemGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.grids, s.err
}

func (s *stubResolver) lastRequest() *catalog.ResolveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type stubLister struct {
	lists []catalog.PriceList
	err   error
}

func (s *stubLister) ListsInScope(_ context.Context, _ int64) ([]catalog.PriceList, error) {
	return s.lists, s.err
}

func sampleGrid() []catalog.ItemGrid {
	price := decimal.RequireFromString("12.50")
	exportPrice := decimal.RequireFromString("97.5")
	return []catalog.ItemGrid{{
		ItemID:        10,
		ItemCode:      "B-100",
		Description:   "Bolts",
		CategoryID:    7,
		PriceListName: "05-WHS",
		PriceCode:     "05-WHS",
		Ranges: []catalog.GridRow{{
			ID:          "10-1",
			Quantity:    1,
			UnitPrice:   &price,
			ExportPrice: &exportPrice,
			Columns:     map[string]*decimal.Decimal{"05-WHS": &price, "06-RET": nil},
		}},
	}}
}

func setupCatalogRouter(t *testing.T, resolver catalog.Resolver, lists PriceListLister) *gin.Engine {
	t.Helper()
	engine := catalog.NewEngine(catalog.Sources{}, catalog.Defaults())
	InitCatalog(resolver, engine, lists)
	t.Cleanup(func() { InitCatalog(nil, nil, nil) })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/internal/catalog/price-grid", ResolvePriceGrid)
	router.GET("/internal/catalog/price-grid", GetPriceGrid)
	router.GET("/internal/catalog/price-grid/export", ExportPriceGrid)
	router.GET("/internal/catalog/price-lists", ListPriceLists)
	router.GET("/internal/catalog/matrix/:code", GetMatrix)
	router.GET("/health", HealthCheck)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", path, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResolvePriceGridHappyPath(t *testing.T) {
	resolver := &stubResolver{grids: sampleGrid()}
	router := setupCatalogRouter(t, resolver, nil)

	w := postJSON(t, router, "/internal/catalog/price-grid", PriceGridRequest{
		PriceListID: 5,
		ItemIDs:     []int64{10},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["total"])

	items := response["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "B-100", item["itemCode"])

	row := item["ranges"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "97.5", row["exportPrice"])
	assert.Nil(t, row["weightPrice"])
	columns := row["columns"].(map[string]interface{})
	assert.Equal(t, "12.5", columns["05-WHS"])
	assert.Contains(t, columns, "06-RET")
	assert.Nil(t, columns["06-RET"])

	assert.Equal(t, int64(5), resolver.lastRequest().PriceListID)
	assert.Equal(t, []int64{10}, resolver.lastRequest().Filter.ItemIDs)
}

func TestResolvePriceGridEmptyResult(t *testing.T) {
	router := setupCatalogRouter(t, &stubResolver{}, nil)

	w := postJSON(t, router, "/internal/catalog/price-grid", PriceGridRequest{PriceListID: 5, ItemIDs: []int64{99}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
}

func TestResolvePriceGridErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       any
		wantStatus int
		wantField  string
	}{
		{
			name:       "malformed body",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing filter",
			body:       PriceGridRequest{PriceListID: 5},
			wantStatus: http.StatusBadRequest,
			wantField:  "itemIds",
		},
		{
			name:       "missing price list",
			body:       PriceGridRequest{ItemIDs: []int64{1}},
			wantStatus: http.StatusBadRequest,
			wantField:  "priceListId",
		},
		{
			name:       "unknown price list",
			err:        catalog.ErrPriceListNotFound,
			body:       PriceGridRequest{PriceListID: 404, ItemIDs: []int64{1}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "sources unavailable",
			err:        catalog.ErrSourceUnavailable,
			body:       PriceGridRequest{PriceListID: 5, ItemIDs: []int64{1}},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			body:       PriceGridRequest{PriceListID: 5, ItemIDs: []int64{1}},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "cancelled",
			err:        context.Canceled,
			body:       PriceGridRequest{PriceListID: 5, ItemIDs: []int64{1}},
			wantStatus: 499,
		},
		{
			name:       "source failure",
			err:        errors.New("connection reset"),
			body:       PriceGridRequest{PriceListID: 5, ItemIDs: []int64{1}},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupCatalogRouter(t, &stubResolver{err: tt.err}, nil)
			w := postJSON(t, router, "/internal/catalog/price-grid", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response["error"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, response["field"])
			}
		})
	}
}

func TestResolvePriceGridNotInitialized(t *testing.T) {
	InitCatalog(nil, nil, nil)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/internal/catalog/price-grid", ResolvePriceGrid)

	w := postJSON(t, router, "/internal/catalog/price-grid", PriceGridRequest{PriceListID: 5, ItemIDs: []int64{1}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetPriceGridQueryBinding(t *testing.T) {
	resolver := &stubResolver{grids: sampleGrid()}
	router := setupCatalogRouter(t, resolver, nil)

	w := get(t, router, "/internal/catalog/price-grid?priceListId=5&itemIds=3,4&itemIds=7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{3, 4, 7}, resolver.lastRequest().Filter.ItemIDs)

	w = get(t, router, "/internal/catalog/price-grid?priceListId=5&categoryId=7&typeIds=2")
	require.Equal(t, http.StatusOK, w.Code)
	filter := resolver.lastRequest().Filter
	require.NotNil(t, filter.CategoryID)
	assert.Equal(t, int64(7), *filter.CategoryID)
	assert.Equal(t, []int64{2}, filter.TypeIDs)
	assert.Empty(t, filter.ItemIDs)

	for _, path := range []string{
		"/internal/catalog/price-grid",
		"/internal/catalog/price-grid?priceListId=abc&itemIds=1",
		"/internal/catalog/price-grid?priceListId=5&itemIds=1,x",
		"/internal/catalog/price-grid?priceListId=5&categoryId=seven",
	} {
		w := get(t, router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestExportPriceGrid(t *testing.T) {
	router := setupCatalogRouter(t, &stubResolver{grids: sampleGrid()}, nil)

	w := get(t, router, "/internal/catalog/price-grid/export?priceListId=5&itemIds=10")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "price-grid-5.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "05-WHS")
	assert.Contains(t, rows[0], "03-KG")
}

func TestListPriceLists(t *testing.T) {
	lister := &stubLister{lists: []catalog.PriceList{
		{ID: 5, Code: "05-WHS", ScopeID: 1, Active: true},
		{ID: 6, Code: "06-RET", ScopeID: 1, Active: true},
	}}
	router := setupCatalogRouter(t, &stubResolver{}, lister)

	w := get(t, router, "/internal/catalog/price-lists?scopeId=1")
	require.Equal(t, http.StatusOK, w.Code)

	var response ListPriceListsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	assert.Equal(t, "05-WHS", response.PriceLists[0].Code)
	assert.Equal(t, []string{"05-WHS", "06-RET", "02-WEX", "01-EXP", "03-KG"}, response.PriceLists[0].Columns)

	w = get(t, router, "/internal/catalog/price-lists")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	lister.err = errors.New("boom")
	w = get(t, router, "/internal/catalog/price-lists?scopeId=1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetMatrix(t *testing.T) {
	router := setupCatalogRouter(t, &stubResolver{}, nil)

	w := get(t, router, "/internal/catalog/matrix/04-IND")
	require.Equal(t, http.StatusOK, w.Code)

	var response MatrixResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"04-IND", "05-WHS", "01-EXP"}, response.Columns)
	assert.Equal(t, "01-EXP", response.ExportBaselineCode)
	assert.Equal(t, "03-KG", response.WeightBasedCode)
}

func TestHealthCheckReportsSources(t *testing.T) {
	router := setupCatalogRouter(t, &stubResolver{}, nil)

	w := get(t, router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "closed", response.Sources)
	assert.Equal(t, "not configured", response.Database)
}
