package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// GetMovements handles fetching the stock movement history.
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.MovementFilters{
		InventoryItemID: optionalQuery(c, "inventory_item_id"),
		OrderID:         optionalQuery(c, "order_id"),
		MovementType:    optionalQuery(c, "movement_type"),
		Page:            page,
		PageSize:        pageSize,
	}

	movements, total, err := h.inventoryService.GetMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch stock movements.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      movements,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
