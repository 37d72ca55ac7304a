package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/export"
)

// ============================================================================
// Price Grid Endpoints
// ============================================================================

// PriceGridRequest selects the price list and the items to resolve.
// Either itemIds or categoryId must be supplied.
type PriceGridRequest struct {
	PriceListID int64   `json:"priceListId" form:"priceListId" jsonschema:"required"`
	ItemIDs     []int64 `json:"itemIds,omitempty" form:"itemIds"`
	CategoryID  *int64  `json:"categoryId,omitempty" form:"categoryId"`
	TypeIDs     []int64 `json:"typeIds,omitempty" form:"typeIds"`
}

// PriceGridResponse is the resolved grid, one entry per item
type PriceGridResponse struct {
	Items []catalog.ItemGrid `json:"items" jsonschema:"required"`
	Total int                `json:"total" jsonschema:"required"`
}

// PriceListLister lists the price lists of a scope
type PriceListLister interface {
	ListsInScope(ctx context.Context, scopeID int64) ([]catalog.PriceList, error)
}

// Global catalog instances (initialized by the application)
var (
	gridResolver catalog.Resolver
	priceEngine  *catalog.Engine
	listLister   PriceListLister
)

// InitCatalog wires the resolver used by the price grid endpoints.
// resolver may be the engine itself or a cache in front of it.
func InitCatalog(resolver catalog.Resolver, engine *catalog.Engine, lists PriceListLister) {
	gridResolver = resolver
	priceEngine = engine
	listLister = lists
}

func (r *PriceGridRequest) toResolveRequest() *catalog.ResolveRequest {
	return &catalog.ResolveRequest{
		PriceListID: r.PriceListID,
		Filter: catalog.ItemFilter{
			ItemIDs:    r.ItemIDs,
			CategoryID: r.CategoryID,
			TypeIDs:    r.TypeIDs,
		},
	}
}

// ResolvePriceGrid resolves the price grid for a JSON request body
// @Summary Resolve price grid
// @Description Resolves the quantity-tier price grid for the selected price list and items
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body PriceGridRequest true "Price list and item filter"
// @Success 200 {object} PriceGridResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Price list not found"
// @Failure 503 {object} map[string]string "Catalog sources unavailable"
// @Router /internal/catalog/price-grid [post]
func ResolvePriceGrid(c *gin.Context) {
	var req PriceGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondWithGrid(c, &req)
}

// GetPriceGrid resolves the price grid from query parameters
// @Summary Get price grid
// @Description Resolves the price grid; ids may be repeated or comma separated
// @Tags catalog
// @Produce json
// @Param priceListId query int true "Selected price list id"
// @Param itemIds query string false "Item ids"
// @Param categoryId query int false "Category id"
// @Param typeIds query string false "Type ids, only with categoryId"
// @Success 200 {object} PriceGridResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Price list not found"
// @Failure 503 {object} map[string]string "Catalog sources unavailable"
// @Router /internal/catalog/price-grid [get]
func GetPriceGrid(c *gin.Context) {
	req, err := bindGridQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondWithGrid(c, req)
}

// ExportPriceGrid resolves the price grid and returns it as a spreadsheet
// @Summary Export price grid
// @Description Resolves the price grid and renders it as an XLSX workbook
// @Tags catalog
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param priceListId query int true "Selected price list id"
// @Param itemIds query string false "Item ids"
// @Param categoryId query int false "Category id"
// @Param typeIds query string false "Type ids, only with categoryId"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Price list not found"
// @Router /internal/catalog/price-grid/export [get]
func ExportPriceGrid(c *gin.Context) {
	req, err := bindGridQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grids, ok := resolveGrid(c, req)
	if !ok {
		return
	}

	var columns []string
	if len(grids) > 0 && priceEngine != nil {
		columns = priceEngine.Matrix().Columns(grids[0].PriceCode)
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, grids, columns); err != nil {
		log.Error().Err(err).Msg("Failed to render price grid workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render workbook"})
		return
	}

	filename := fmt.Sprintf("price-grid-%d.xlsx", req.PriceListID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func respondWithGrid(c *gin.Context, req *PriceGridRequest) {
	grids, ok := resolveGrid(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, PriceGridResponse{Items: grids, Total: len(grids)})
}

// resolveGrid runs the resolver and writes the error response on failure
func resolveGrid(c *gin.Context, req *PriceGridRequest) ([]catalog.ItemGrid, bool) {
	if gridResolver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price engine not initialized"})
		return nil, false
	}

	grids, err := gridResolver.Resolve(c.Request.Context(), req.toResolveRequest())
	if err != nil {
		writeResolveError(c, req, err)
		return nil, false
	}
	if grids == nil {
		grids = []catalog.ItemGrid{}
	}
	return grids, true
}

func writeResolveError(c *gin.Context, req *PriceGridRequest, err error) {
	var invalid catalog.ErrInvalidRequest
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": invalid.Field})
	case errors.Is(err, catalog.ErrPriceListNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("price list %d not found", req.PriceListID)})
	case errors.Is(err, catalog.ErrSourceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "price grid resolution timed out"})
	case errors.Is(err, context.Canceled):
		// client went away; nginx-style 499
		c.JSON(499, gin.H{"error": "request cancelled"})
	default:
		log.Error().Err(err).Int64("price_list_id", req.PriceListID).Msg("Price grid resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve price grid"})
	}
}

// bindGridQuery reads the grid request from the query string
func bindGridQuery(c *gin.Context) (*PriceGridRequest, error) {
	req := &PriceGridRequest{}

	raw := c.Query("priceListId")
	if raw == "" {
		return nil, fmt.Errorf("priceListId is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid priceListId: %q", raw)
	}
	req.PriceListID = id

	if req.ItemIDs, err = parseIDList(c.QueryArray("itemIds")); err != nil {
		return nil, fmt.Errorf("invalid itemIds: %w", err)
	}
	if req.TypeIDs, err = parseIDList(c.QueryArray("typeIds")); err != nil {
		return nil, fmt.Errorf("invalid typeIds: %w", err)
	}
	if raw := c.Query("categoryId"); raw != "" {
		cat, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid categoryId: %q", raw)
		}
		req.CategoryID = &cat
	}
	return req, nil
}

// parseIDList accepts repeated values and comma separated lists
func parseIDList(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an id", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
