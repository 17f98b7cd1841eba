package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TableMapHandler holds the table service.
type TableMapHandler struct {
	tableService services.TableService
}

// NewTableMapHandler creates a new TableMapHandler.
func NewTableMapHandler(ts services.TableService) *TableMapHandler {
	return &TableMapHandler{tableService: ts}
}

func (h *TableMapHandler) CreateMap(c *gin.Context) {
	var req services.CreateTableMapRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.tableService.CreateMap(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create table map.")
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *TableMapHandler) GetMaps(c *gin.Context) {
	maps, err := h.tableService.GetMaps(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to fetch table maps.")
		return
	}
	c.JSON(http.StatusOK, maps)
}

func (h *TableMapHandler) GetMapByID(c *gin.Context) {
	m, err := h.tableService.GetMapByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch table map.")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *TableMapHandler) DeleteMap(c *gin.Context) {
	if err := h.tableService.DeleteMap(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to delete table map.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table map deleted successfully"})
}

// AddTable appends a table to a map.
func (h *TableMapHandler) AddTable(c *gin.Context) {
	var req services.AddTableRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.tableService.AddTable(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to add table.")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *TableMapHandler) RemoveTable(c *gin.Context) {
	m, err := h.tableService.RemoveTable(c.Request.Context(), c.Param("id"), c.Param("tableId"))
	if err != nil {
		respondServiceError(c, err, "Failed to remove table.")
		return
	}
	c.JSON(http.StatusOK, m)
}

// SetTableStatus sets a manual status on a table without an open order.
func (h *TableMapHandler) SetTableStatus(c *gin.Context) {
	var req services.SetTableStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.tableService.SetTableStatus(c.Request.Context(), c.Param("id"), c.Param("tableId"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update table status.")
		return
	}
	c.JSON(http.StatusOK, m)
}
