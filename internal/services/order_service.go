package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/rules"
	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrOrderItemNotFound is returned when an item id is not part of the order.
var ErrOrderItemNotFound = fmt.Errorf("order item %w", ErrNotFound)

// --- Data Transfer Objects (DTOs) ---

// OrderItemRequest references an inventory item by id. Name, price, unit and
// category are taken from the inventory record.
type OrderItemRequest struct {
	InventoryItemID string              `json:"inventory_item_id" binding:"required"`
	Quantity        int                 `json:"quantity"`
	Notes           string              `json:"notes"`
	Dietary         models.DietaryFlags `json:"dietary"`
}

// CreateOrderRequest is used for creating a new order.
type CreateOrderRequest struct {
	OrderType     string              `json:"order_type" binding:"required"`
	TableMapID    *string             `json:"table_map_id"`
	TableID       *string             `json:"table_id"`
	WaiterName    string              `json:"waiter_name"`
	DiscountType  string              `json:"discount_type"`
	DiscountValue float64             `json:"discount_value"`
	Notes         *string             `json:"notes"`
	Payment       *models.PaymentInfo `json:"payment"`
	Items         []OrderItemRequest  `json:"items"`
}

// AddItemsRequest appends items to an open order.
type AddItemsRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// UpdateItemStatusRequest DTO
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateItemQuantityRequest DTO
type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CloseOrderRequest records the payment. A zero Amount means exact payment.
type CloseOrderRequest struct {
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
}

// CancelOrderRequest DTO
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderResult is returned by every order write. Warnings carry stock
// shortfalls and table sync problems that did not stop the write.
type OrderResult struct {
	Order    *models.Order `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// --- OrderService Interface ---
type OrderService interface {
	CreateOrder(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*OrderResult, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	AddItems(ctx context.Context, actor models.Actor, orderID string, req AddItemsRequest) (*OrderResult, error)
	UpdateItemStatus(ctx context.Context, actor models.Actor, orderID, itemID string, req UpdateItemStatusRequest) (*OrderResult, error)
	UpdateItemQuantity(ctx context.Context, actor models.Actor, orderID, itemID string, req UpdateItemQuantityRequest) (*OrderResult, error)
	CloseOrder(ctx context.Context, actor models.Actor, orderID string, req CloseOrderRequest) (*OrderResult, error)
	CancelOrder(ctx context.Context, actor models.Actor, orderID string, req CancelOrderRequest) (*OrderResult, error)
	RequestBill(ctx context.Context, actor models.Actor, orderID string) (*OrderResult, error)
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo     repositories.OrderRepository
	inventoryRepo repositories.InventoryRepository
	adjuster      StockAdjuster
	tables        TableSynchronizer
	tx            repositories.Transactor
	emitter
	now func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	ir repositories.InventoryRepository,
	adjuster StockAdjuster,
	tables TableSynchronizer,
	tx repositories.Transactor,
	notifier Notifier,
	changes ChangePublisher,
) OrderService {
	return &orderService{
		orderRepo:     or,
		inventoryRepo: ir,
		adjuster:      adjuster,
		tables:        tables,
		tx:            tx,
		emitter:       emitter{notifier: notifier, changes: changes},
		now:           time.Now,
	}
}

// orderChange collects the side results of one transactional order write.
type orderChange struct {
	warnings []string
	events   []models.Event
}

func (c *orderChange) warn(msg string) {
	c.warnings = append(c.warnings, msg)
}

func validateItemRequests(items []OrderItemRequest) error {
	if len(items) == 0 {
		return validationErrorf("at least one item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.InventoryItemID) == "" {
			return validationErrorf("item %d: inventory_item_id is required", i)
		}
		if item.Quantity < 1 {
			return validationErrorf("item %d: quantity must be at least 1", i)
		}
	}
	return nil
}

func validateCreateOrder(req CreateOrderRequest) error {
	if err := validateItemRequests(req.Items); err != nil {
		return err
	}
	if req.Payment != nil {
		return validationErrorf("payment is recorded when the order is closed")
	}
	if !models.IsValidOrderType(req.OrderType) {
		return validationErrorf("invalid order type %q", req.OrderType)
	}
	if models.OrderType(req.OrderType) == models.OrderTypeTable {
		if req.TableMapID == nil || *req.TableMapID == "" || req.TableID == nil || *req.TableID == "" {
			return validationErrorf("table_map_id and table_id are required for table orders")
		}
	}
	return nil
}

// resolveItems builds order lines from inventory records.
func (s *orderService) resolveItems(ctx context.Context, exec repositories.SQLExecutor, reqs []OrderItemRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		inv, err := s.inventoryRepo.GetItemByID(ctx, exec, r.InventoryItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrInventoryItemNotFound, r.InventoryItemID)
			}
			return nil, storeError(err, nil)
		}
		items = append(items, rules.BackfillItem(models.OrderItem{
			InventoryItemID: inv.ID,
			Name:            inv.Name,
			Category:        inv.CategoryID,
			Quantity:        r.Quantity,
			Price:           inv.Price,
			Unit:            inv.Unit,
			Status:          models.ItemStatusPending,
			Dietary:         r.Dietary,
			Notes:           strings.TrimSpace(r.Notes),
		}))
	}
	return items, nil
}

// moveLineStock moves units of the line's stock in the direction of sign and
// returns how many units were actually moved. Shortfalls and missing inventory
// records become warnings and move nothing.
func (s *orderService) moveLineStock(ctx context.Context, exec repositories.SQLExecutor, actor models.Actor, orderID string,
	item models.OrderItem, units int, sign float64, movementType, reason string, change *orderChange) (int, error) {
	if units <= 0 || item.InventoryItemID == "" {
		return 0, nil
	}
	userID := actor.UserID
	adj, err := s.adjuster.AdjustStock(ctx, exec, StockChange{
		CategoryID:   item.Category,
		ItemID:       item.InventoryItemID,
		Delta:        sign * float64(units),
		MovementType: movementType,
		OrderID:      &orderID,
		UserID:       &userID,
		Reason:       reason,
	})
	switch {
	case err == nil:
	case isInsufficient(err):
		change.warn(err.Error())
		return 0, nil
	case errors.Is(err, ErrInventoryItemNotFound):
		change.warn(fmt.Sprintf("%s: stock not adjusted, inventory item %s no longer exists", item.Name, item.InventoryItemID))
		return 0, nil
	default:
		return 0, err
	}
	if adj.Skipped {
		return 0, nil
	}
	if adj.LowStock {
		change.events = append(change.events, models.Event{
			Type:            models.EventInventoryLow,
			InventoryItemID: adj.InventoryItemID,
			Message:         fmt.Sprintf("%s is running low (%v left)", adj.ItemName, adj.Quantity),
		})
	}
	return units, nil
}

// deductStock takes each new line's quantity from inventory and records what
// was taken on the line.
func (s *orderService) deductStock(ctx context.Context, exec repositories.SQLExecutor, actor models.Actor, orderID string,
	items []models.OrderItem, reason string, change *orderChange) error {
	for i := range items {
		n, err := s.moveLineStock(ctx, exec, actor, orderID, items[i], items[i].Quantity, -1, models.MovementTypeSale, reason, change)
		if err != nil {
			return err
		}
		items[i].StockDeducted = n
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*OrderResult, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        actor.UserID,
		DiscountType:  models.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		OrderType:     models.OrderType(req.OrderType),
		WaiterName:    strings.TrimSpace(req.WaiterName),
		Notes:         req.Notes,
	}
	if order.WaiterName == "" {
		order.WaiterName = actor.Username
	}
	if order.OrderType == models.OrderTypeTable {
		order.TableMapID = req.TableMapID
		order.TableID = req.TableID
	}

	change := &orderChange{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		items, err := s.resolveItems(ctx, exec, req.Items)
		if err != nil {
			return err
		}
		order.Items = items
		order.Subtotal = rules.Subtotal(items)
		order.Discount, err = rules.DiscountAmount(order.Subtotal, order.DiscountType, order.DiscountValue)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		order.Total = rules.Total(order.Subtotal, order.Discount)

		if err := s.deductStock(ctx, exec, actor, order.ID, items, "order created", change); err != nil {
			return err
		}

		order.Status = rules.AggregateStatus(order.Items)
		now := s.now()
		order.CreatedAt, order.UpdatedAt = now, now
		if err := s.orderRepo.CreateOrder(ctx, exec, order); err != nil {
			return storeError(err, nil)
		}

		if order.TableMapID != nil && order.TableID != nil {
			if err := s.tables.OccupyTable(ctx, exec, *order.TableMapID, *order.TableID, order.ID); err != nil {
				return err
			}
			change.events = append(change.events, tableEvent(order))
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, nil)
	}

	utils.LogInfo("Order created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  actor.UserID,
		"total":    order.Total,
		"warnings": len(change.warnings),
	})
	s.emit(ctx, append([]models.Event{orderEvent(models.EventOrderCreated, order, actor)}, change.events...)...)
	return &OrderResult{Order: order, Warnings: change.warnings}, nil
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidOrderStatus(*filters.Status) {
		return nil, 0, validationErrorf("invalid status filter %q", *filters.Status)
	}
	if filters.Date != nil && *filters.Date != "" {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			return nil, 0, validationErrorf("date must be YYYY-MM-DD")
		}
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	orders, total, err := s.orderRepo.GetOrders(ctx, filters)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return orders, total, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, nil, orderID)
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}
	return order, nil
}

// mutateOrder locks an open order, lets fn modify it, then recomputes status
// and totals, persists it and brings its table in line.
func (s *orderService) mutateOrder(ctx context.Context, actor models.Actor, orderID string, eventType models.EventType,
	fn func(exec repositories.SQLExecutor, order *models.Order, change *orderChange) error) (*OrderResult, error) {
	change := &orderChange{}
	var order *models.Order
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return storeError(err, ErrOrderNotFound)
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: status is %s", ErrOrderClosed, order.Status)
		}
		if err := fn(exec, order, change); err != nil {
			return err
		}

		order.Status = rules.ResolveOrderStatus(order.Status, order.Items)
		rules.Reprice(order)
		order.UpdatedAt = s.now()
		if err := s.orderRepo.UpdateOrder(ctx, exec, order); err != nil {
			return storeError(err, ErrOrderNotFound)
		}

		if order.TableMapID == nil || order.TableID == nil {
			return nil
		}
		changed, err := s.tables.SyncOrder(ctx, exec, *order.TableMapID, *order.TableID, order.ID, order.Status)
		switch {
		case err == nil:
			if changed {
				change.events = append(change.events, tableEvent(order))
			}
		case errors.Is(err, ErrNotFound):
			change.warn(fmt.Sprintf("table %s could not be updated: %v", *order.TableID, err))
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, nil)
	}

	s.emit(ctx, append([]models.Event{orderEvent(eventType, order, actor)}, change.events...)...)
	return &OrderResult{Order: order, Warnings: change.warnings}, nil
}

func (s *orderService) AddItems(ctx context.Context, actor models.Actor, orderID string, req AddItemsRequest) (*OrderResult, error) {
	if err := validateItemRequests(req.Items); err != nil {
		return nil, err
	}
	return s.mutateOrder(ctx, actor, orderID, models.EventOrderUpdated, func(exec repositories.SQLExecutor, order *models.Order, change *orderChange) error {
		items, err := s.resolveItems(ctx, exec, req.Items)
		if err != nil {
			return err
		}
		if err := s.deductStock(ctx, exec, actor, order.ID, items, "items added", change); err != nil {
			return err
		}
		order.Items = append(order.Items, items...)
		return nil
	})
}

func findItem(order *models.Order, itemID string) (int, error) {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrOrderItemNotFound, itemID)
}

func (s *orderService) UpdateItemStatus(ctx context.Context, actor models.Actor, orderID, itemID string, req UpdateItemStatusRequest) (*OrderResult, error) {
	if !models.IsValidItemStatus(req.Status) {
		return nil, validationErrorf("invalid item status %q", req.Status)
	}
	return s.mutateOrder(ctx, actor, orderID, models.EventOrderUpdated, func(_ repositories.SQLExecutor, order *models.Order, _ *orderChange) error {
		idx, err := findItem(order, itemID)
		if err != nil {
			return err
		}
		order.Items[idx].Status = models.ItemStatus(req.Status)
		return nil
	})
}

func (s *orderService) UpdateItemQuantity(ctx context.Context, actor models.Actor, orderID, itemID string, req UpdateItemQuantityRequest) (*OrderResult, error) {
	if req.Quantity < 1 {
		return nil, validationErrorf("quantity must be at least 1")
	}
	return s.mutateOrder(ctx, actor, orderID, models.EventOrderUpdated, func(exec repositories.SQLExecutor, order *models.Order, change *orderChange) error {
		idx, err := findItem(order, itemID)
		if err != nil {
			return err
		}
		item := &order.Items[idx]
		const reason = "item quantity changed"
		if diff := req.Quantity - item.Quantity; diff > 0 {
			n, err := s.moveLineStock(ctx, exec, actor, order.ID, *item, diff, -1, models.MovementTypeQuantityEdit, reason, change)
			if err != nil {
				return err
			}
			item.StockDeducted += n
		} else if surplus := item.StockDeducted - req.Quantity; surplus > 0 {
			// only units that were deducted can go back
			n, err := s.moveLineStock(ctx, exec, actor, order.ID, *item, surplus, 1, models.MovementTypeQuantityEdit, reason, change)
			if err != nil {
				return err
			}
			item.StockDeducted -= n
		}
		item.Quantity = req.Quantity
		return nil
	})
}

func (s *orderService) CloseOrder(ctx context.Context, actor models.Actor, orderID string, req CloseOrderRequest) (*OrderResult, error) {
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, validationErrorf("payment_method is required")
	}
	if req.Amount < 0 {
		return nil, validationErrorf("amount must not be negative")
	}
	return s.mutateOrder(ctx, actor, orderID, models.EventOrderClosed, func(_ repositories.SQLExecutor, order *models.Order, _ *orderChange) error {
		rules.Reprice(order)
		total := decimal.NewFromFloat(order.Total)
		amount := decimal.NewFromFloat(req.Amount)
		if req.Amount == 0 {
			amount = total
		}
		if amount.LessThan(total) {
			return validationErrorf("amount %s is less than the order total %s", amount.StringFixed(2), total.StringFixed(2))
		}
		now := s.now()
		order.Payment = &models.PaymentInfo{
			Method: method,
			Amount: amount.Round(2).InexactFloat64(),
			Change: amount.Sub(total).Round(2).InexactFloat64(),
			PaidAt: now,
		}
		order.Status = models.OrderStatusPaid
		order.ClosedAt = &now
		return nil
	})
}

func (s *orderService) CancelOrder(ctx context.Context, actor models.Actor, orderID string, req CancelOrderRequest) (*OrderResult, error) {
	return s.mutateOrder(ctx, actor, orderID, models.EventOrderCancelled, func(exec repositories.SQLExecutor, order *models.Order, change *orderChange) error {
		reason := "order cancelled"
		if r := strings.TrimSpace(req.Reason); r != "" {
			reason = r
		}
		for i := range order.Items {
			item := &order.Items[i]
			n, err := s.moveLineStock(ctx, exec, actor, order.ID, *item, item.StockDeducted, 1, models.MovementTypeReturnCancellation, reason, change)
			if err != nil {
				return err
			}
			item.StockDeducted -= n
		}
		now := s.now()
		order.Status = models.OrderStatusCancelled
		order.ClosedAt = &now
		return nil
	})
}

func (s *orderService) RequestBill(ctx context.Context, actor models.Actor, orderID string) (*OrderResult, error) {
	return s.mutateOrder(ctx, actor, orderID, models.EventBillRequested, func(exec repositories.SQLExecutor, order *models.Order, change *orderChange) error {
		if order.TableMapID == nil || order.TableID == nil {
			return validationErrorf("order %s is not seated at a table", order.ID)
		}
		if err := s.tables.MarkBilling(ctx, exec, *order.TableMapID, *order.TableID, order.ID); err != nil {
			return err
		}
		change.events = append(change.events, tableEvent(order))
		return nil
	})
}

func orderEvent(eventType models.EventType, order *models.Order, actor models.Actor) models.Event {
	event := models.Event{
		Type:    eventType,
		OrderID: order.ID,
		Status:  string(order.Status),
		ActorID: actor.UserID,
	}
	if order.TableID != nil {
		event.TableID = *order.TableID
	}
	if order.TableMapID != nil {
		event.TableMapID = *order.TableMapID
	}
	return event
}

func tableEvent(order *models.Order) models.Event {
	return models.Event{
		Type:       models.EventTableUpdated,
		OrderID:    order.ID,
		TableMapID: utils.DerefString(order.TableMapID),
		TableID:    utils.DerefString(order.TableID),
		Status:     string(order.Status),
	}
}
