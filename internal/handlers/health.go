package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sources  string `json:"sources,omitempty"` // Source circuit breaker state
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	if priceEngine != nil {
		response.Sources = priceEngine.BreakerState().String()
	}

	if database.Pool() != nil {
		if err := database.Status(c.Request.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	} else {
		response.Database = "not configured"
	}

	if priceEngine != nil && priceEngine.BreakerState() == catalog.CircuitOpen {
		response.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
