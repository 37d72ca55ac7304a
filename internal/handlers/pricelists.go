package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

// ListPriceListsRequest represents query parameters for listing price lists
type ListPriceListsRequest struct {
	ScopeID int64 `form:"scopeId" binding:"required,min=1" jsonschema:"required"`
}

// PriceListSummary is one price list of a scope
type PriceListSummary struct {
	ID      int64    `json:"id" jsonschema:"required"`
	Code    string   `json:"code" jsonschema:"required"`
	ScopeID int64    `json:"scopeId" jsonschema:"required"`
	Columns []string `json:"columns" jsonschema:"required"` // Codes shown when this list is selected
}

// ListPriceListsResponse represents the response for listing price lists
type ListPriceListsResponse struct {
	PriceLists []PriceListSummary `json:"priceLists"`
	Total      int                `json:"total"`
}

// MatrixResponse describes the columns surfaced for a selected code
type MatrixResponse struct {
	Code               string   `json:"code" jsonschema:"required"`
	Columns            []string `json:"columns" jsonschema:"required"`
	ExportBaselineCode string   `json:"exportBaselineCode"`
	WeightBasedCode    string   `json:"weightBasedCode"`
}

// ListPriceLists returns the active price lists of a scope
// @Summary List price lists
// @Description Returns the active price lists of a scope with their matrix columns
// @Tags catalog
// @Produce json
// @Param scopeId query int true "Scope id"
// @Success 200 {object} ListPriceListsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/catalog/price-lists [get]
func ListPriceLists(c *gin.Context) {
	var req ListPriceListsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if listLister == nil || priceEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price engine not initialized"})
		return
	}

	lists, err := listLister.ListsInScope(c.Request.Context(), req.ScopeID)
	if err != nil {
		log.Error().Err(err).Int64("scope_id", req.ScopeID).Msg("Failed to list price lists")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list price lists"})
		return
	}

	summaries := make([]PriceListSummary, len(lists))
	for i, l := range lists {
		summaries[i] = summarize(l, priceEngine.Matrix())
	}

	c.JSON(http.StatusOK, ListPriceListsResponse{PriceLists: summaries, Total: len(summaries)})
}

// GetMatrix returns the column set for a price list code
// @Summary Get matrix columns
// @Description Returns the codes surfaced beside the given price list code
// @Tags catalog
// @Produce json
// @Param code path string true "Price list code"
// @Success 200 {object} MatrixResponse
// @Router /internal/catalog/matrix/{code} [get]
func GetMatrix(c *gin.Context) {
	if priceEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price engine not initialized"})
		return
	}

	m := priceEngine.Matrix()
	code := c.Param("code")
	c.JSON(http.StatusOK, MatrixResponse{
		Code:               code,
		Columns:            m.Columns(code),
		ExportBaselineCode: m.ExportBaselineCode(),
		WeightBasedCode:    m.WeightBasedCode(),
	})
}

func summarize(l catalog.PriceList, m *catalog.ColumnMatrix) PriceListSummary {
	return PriceListSummary{
		ID:      l.ID,
		Code:    l.Code,
		ScopeID: l.ScopeID,
		Columns: m.Columns(l.Code),
	}
}
