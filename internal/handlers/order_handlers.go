package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles the creation of a new order with its items.
// Stock shortfalls do not fail the request; they come back as warnings.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "Failed to create order.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetOrders handles fetching orders with filters and pagination.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.OrderFilters{
		Status:    optionalQuery(c, "status"),
		TableID:   optionalQuery(c, "table_id"),
		OrderType: optionalQuery(c, "order_type"),
		Date:      optionalQuery(c, "date"),
		Page:      page,
		PageSize:  pageSize,
	}

	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrderByID handles fetching a single order.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	order, err := h.orderService.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// AddItems appends items to an open order.
func (h *OrderHandler) AddItems(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.AddItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.orderService.AddItems(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to add items.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateItemStatus moves one line item through the kitchen/bar workflow.
func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.UpdateItemStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.orderService.UpdateItemStatus(c.Request.Context(), actor, c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update item status.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.UpdateItemQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.orderService.UpdateItemQuantity(c.Request.Context(), actor, c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update item quantity.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CloseOrder records payment and frees the table.
func (h *OrderHandler) CloseOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CloseOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.orderService.CloseOrder(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to close order.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelOrder cancels an open order and returns its stock. The body is optional.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CancelOrderRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	result, err := h.orderService.CancelOrder(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to cancel order.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) RequestBill(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := h.orderService.RequestBill(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to request the bill.")
		return
	}
	c.JSON(http.StatusOK, result)
}
