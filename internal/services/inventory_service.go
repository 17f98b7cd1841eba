package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/rules"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInventoryItemRequest DTO
type CreateInventoryItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	CategoryID  string   `json:"category_id" binding:"required"`
	Quantity    *float64 `json:"quantity"`
	MinQuantity *float64 `json:"min_quantity"`
	Unit        string   `json:"unit"`
	Price       float64  `json:"price"`
	Supplier    *string  `json:"supplier"`
	Description *string  `json:"description"`
}

// UpdateInventoryItemRequest replaces the editable fields of an item. Version
// must carry the value the client last read.
type UpdateInventoryItemRequest struct {
	CreateInventoryItemRequest
	Version int64 `json:"version"`
}

// AddStockRequest DTO
type AddStockRequest struct {
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason"`
}

// InventoryService manages inventory items and their stock.
type InventoryService interface {
	CreateItem(ctx context.Context, actor models.Actor, req CreateInventoryItemRequest) (*models.InventoryItem, error)
	GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	GetItemByID(ctx context.Context, itemID string) (*models.InventoryItem, error)
	UpdateItem(ctx context.Context, actor models.Actor, itemID string, req UpdateInventoryItemRequest) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	AddStock(ctx context.Context, actor models.Actor, itemID string, req AddStockRequest) (*StockAdjustment, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	movementRepo  repositories.InventoryMovementRepository
	adjuster      StockAdjuster
	tx            repositories.Transactor
	emitter
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(
	ir repositories.InventoryRepository,
	mr repositories.InventoryMovementRepository,
	adjuster StockAdjuster,
	tx repositories.Transactor,
	notifier Notifier,
	changes ChangePublisher,
) InventoryService {
	return &inventoryService{
		inventoryRepo: ir,
		movementRepo:  mr,
		adjuster:      adjuster,
		tx:            tx,
		emitter:       emitter{notifier: notifier, changes: changes},
	}
}

// applyItemFields validates req and copies it onto item. Categories that are
// not stock-tracked always carry nil quantities.
func applyItemFields(item *models.InventoryItem, req CreateInventoryItemRequest) error {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.CategoryID)
	if name == "" {
		return validationErrorf("name is required")
	}
	if category == "" {
		return validationErrorf("category_id is required")
	}
	if req.Price < 0 {
		return validationErrorf("price must not be negative")
	}
	item.Name = name
	item.CategoryID = rules.Fold(category)
	item.Price = req.Price
	item.Unit = strings.TrimSpace(req.Unit)
	if item.Unit == "" {
		item.Unit = rules.DefaultUnit
	}
	item.Supplier = req.Supplier
	item.Description = req.Description

	if !rules.IsStockTracked(item.CategoryID) {
		item.Quantity = nil
		item.MinQuantity = nil
		return nil
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return validationErrorf("quantity must not be negative")
	}
	if req.MinQuantity != nil && *req.MinQuantity < 0 {
		return validationErrorf("min_quantity must not be negative")
	}
	// omitted quantities keep the values already on item
	if req.Quantity != nil {
		qty := *req.Quantity
		item.Quantity = &qty
	} else if item.Quantity == nil {
		item.Quantity = new(float64)
	}
	if req.MinQuantity != nil {
		minQty := *req.MinQuantity
		item.MinQuantity = &minQty
	}
	return nil
}

func (s *inventoryService) CreateItem(ctx context.Context, actor models.Actor, req CreateInventoryItemRequest) (*models.InventoryItem, error) {
	item := &models.InventoryItem{ID: uuid.NewString()}
	if err := applyItemFields(item, req); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.inventoryRepo.CreateItem(ctx, exec, item); err != nil {
			return err
		}
		if item.Quantity == nil || *item.Quantity == 0 {
			return nil
		}
		return s.movementRepo.CreateMovement(ctx, exec, &models.StockMovement{
			ID:              uuid.NewString(),
			InventoryItemID: item.ID,
			CategoryID:      item.CategoryID,
			UserID:          actorID(actor),
			MovementType:    models.MovementTypeRestock,
			Delta:           *item.Quantity,
			QuantityAfter:   *item.Quantity,
			Reason:          strPtr("initial stock"),
			CreatedAt:       item.CreatedAt,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, validationErrorf("an item named %q already exists in %s", item.Name, item.CategoryID)
		}
		return nil, storeError(err, nil)
	}
	s.emit(ctx, models.Event{Type: models.EventInventoryChange, InventoryItemID: item.ID, ActorID: actor.UserID})
	return item, nil
}

func (s *inventoryService) GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	if filters.CategoryID != nil {
		folded := rules.Fold(*filters.CategoryID)
		filters.CategoryID = &folded
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	items, total, err := s.inventoryRepo.GetItems(ctx, filters)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return items, total, nil
}

func (s *inventoryService) GetItemByID(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		return nil, storeError(err, ErrInventoryItemNotFound)
	}
	return item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, actor models.Actor, itemID string, req UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	if req.Version <= 0 {
		return nil, validationErrorf("version is required")
	}

	var updated *models.InventoryItem
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.inventoryRepo.GetItemByID(ctx, exec, itemID)
		if err != nil {
			return err
		}
		if current.Version != req.Version {
			return ErrConflict
		}
		item := *current
		if err := applyItemFields(&item, req.CreateInventoryItemRequest); err != nil {
			return err
		}
		item.UpdatedAt = time.Now()
		if err := s.inventoryRepo.UpdateItem(ctx, exec, &item, req.Version); err != nil {
			return err
		}
		updated = &item

		delta := quantityDelta(current.Quantity, item.Quantity)
		if delta.IsZero() || item.Quantity == nil {
			return nil
		}
		return s.movementRepo.CreateMovement(ctx, exec, &models.StockMovement{
			ID:              uuid.NewString(),
			InventoryItemID: item.ID,
			CategoryID:      item.CategoryID,
			UserID:          actorID(actor),
			MovementType:    models.MovementTypeQuantityEdit,
			Delta:           delta.InexactFloat64(),
			QuantityAfter:   *item.Quantity,
			Reason:          strPtr("manual edit"),
			CreatedAt:       item.UpdatedAt,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, validationErrorf("an item with this name already exists in the category")
		}
		return nil, storeError(err, ErrInventoryItemNotFound)
	}

	events := []models.Event{{Type: models.EventInventoryChange, InventoryItemID: updated.ID, ActorID: actor.UserID}}
	if updated.IsLowStock() {
		events = append(events, models.Event{Type: models.EventInventoryLow, InventoryItemID: updated.ID, Message: updated.Name + " is running low"})
	}
	s.emit(ctx, events...)
	return updated, nil
}

func quantityDelta(before, after *float64) decimal.Decimal {
	b, a := decimal.Zero, decimal.Zero
	if before != nil {
		b = decimal.NewFromFloat(*before)
	}
	if after != nil {
		a = decimal.NewFromFloat(*after)
	}
	return a.Sub(b)
}

func (s *inventoryService) DeleteItem(ctx context.Context, itemID string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.inventoryRepo.DeleteItem(ctx, exec, itemID)
	})
	if err != nil {
		return storeError(err, ErrInventoryItemNotFound)
	}
	s.emit(ctx, models.Event{Type: models.EventInventoryChange, InventoryItemID: itemID})
	return nil
}

func (s *inventoryService) AddStock(ctx context.Context, actor models.Actor, itemID string, req AddStockRequest) (*StockAdjustment, error) {
	if req.Quantity <= 0 {
		return nil, validationErrorf("quantity must be positive")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "restock"
	}

	var adj *StockAdjustment
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		item, err := s.inventoryRepo.GetItemByID(ctx, exec, itemID)
		if err != nil {
			return err
		}
		if !rules.IsStockTracked(item.CategoryID) {
			return validationErrorf("category %s does not track stock", item.CategoryID)
		}
		adj, err = s.adjuster.AdjustStock(ctx, exec, StockChange{
			CategoryID:   item.CategoryID,
			ItemID:       item.ID,
			Delta:        req.Quantity,
			MovementType: models.MovementTypeRestock,
			UserID:       actorID(actor),
			Reason:       reason,
		})
		return err
	})
	if err != nil {
		return nil, storeError(err, ErrInventoryItemNotFound)
	}
	s.emit(ctx, models.Event{Type: models.EventInventoryChange, InventoryItemID: itemID, ActorID: actor.UserID})
	return adj, nil
}

func (s *inventoryService) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	movements, total, err := s.movementRepo.GetMovements(ctx, filters)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return movements, total, nil
}

func actorID(actor models.Actor) *string {
	if actor.UserID == "" {
		return nil
	}
	id := actor.UserID
	return &id
}

func strPtr(s string) *string {
	return &s
}
