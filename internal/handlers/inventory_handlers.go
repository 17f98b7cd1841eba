package handlers

import (
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler holds the inventory service.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// CreateItem handles creation of a new inventory item.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CreateInventoryItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inventoryService.CreateItem(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "Failed to create inventory item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems lists inventory items, optionally by category or low stock only.
func (h *InventoryHandler) GetItems(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.InventoryFilters{
		CategoryID: optionalQuery(c, "category_id"),
		Page:       page,
		PageSize:   pageSize,
	}
	if s := c.Query("low_stock"); s != "" {
		lowStock, err := strconv.ParseBool(s)
		if err != nil {
			utils.RespondValidationFailed(c, "low_stock must be true or false")
			return
		}
		filters.LowStock = lowStock
	}

	items, total, err := h.inventoryService.GetItems(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch inventory.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *InventoryHandler) GetItemByID(c *gin.Context) {
	item, err := h.inventoryService.GetItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch inventory item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem replaces an item's editable fields. A stale version yields 409.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.UpdateInventoryItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inventoryService.UpdateItem(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update inventory item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.inventoryService.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to delete inventory item.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}

// AddStock restocks a counted item.
func (h *InventoryHandler) AddStock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.AddStockRequest
	if !bindJSON(c, &req) {
		return
	}
	adj, err := h.inventoryService.AddStock(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to add stock.")
		return
	}
	c.JSON(http.StatusOK, adj)
}
