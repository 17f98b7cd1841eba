package handlers

import (
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// parseReportRequestParams helps parse common query parameters for reports.
func parseReportRequestParams(c *gin.Context) models.ReportRequestParams {
	return models.ReportRequestParams{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
}

// GetSalesReport aggregates paid orders between start_date and end_date (inclusive, YYYY-MM-DD).
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	report, err := h.reportService.GetSalesReport(c.Request.Context(), parseReportRequestParams(c))
	if err != nil {
		respondServiceError(c, err, "Failed to build sales report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetInventoryReport lists stock levels; low_stock=true restricts it to items at or below their minimum.
func (h *ReportHandler) GetInventoryReport(c *gin.Context) {
	lowStock := false
	if s := c.Query("low_stock"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			utils.RespondValidationFailed(c, "low_stock must be true or false")
			return
		}
		lowStock = v
	}
	items, err := h.reportService.GetInventoryReport(c.Request.Context(), lowStock)
	if err != nil {
		respondServiceError(c, err, "Failed to build inventory report.")
		return
	}
	c.JSON(http.StatusOK, items)
}
