package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/rules"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockChange describes one quantity-on-hand adjustment.
type StockChange struct {
	CategoryID   string
	ItemID       string
	Delta        float64
	MovementType string
	OrderID      *string
	UserID       *string
	Reason       string
}

// StockAdjustment is the outcome of AdjustStock.
type StockAdjustment struct {
	InventoryItemID string  `json:"inventory_item_id"`
	ItemName        string  `json:"item_name"`
	Skipped         bool    `json:"skipped"`
	Previous        float64 `json:"previous"`
	Quantity        float64 `json:"quantity"`
	LowStock        bool    `json:"low_stock"`
}

// StockAdjuster applies quantity deltas to counted inventory items.
type StockAdjuster interface {
	// AdjustStock must run inside the caller's transaction. Categories that are
	// not stock-tracked are skipped. A result below zero yields
	// ErrInsufficientStock and nothing is written.
	AdjustStock(ctx context.Context, exec repositories.SQLExecutor, change StockChange) (*StockAdjustment, error)
}

type stockAdjuster struct {
	inventoryRepo repositories.InventoryRepository
	movementRepo  repositories.InventoryMovementRepository
	now           func() time.Time
}

// NewStockAdjuster creates a new instance of StockAdjuster.
func NewStockAdjuster(ir repositories.InventoryRepository, mr repositories.InventoryMovementRepository) StockAdjuster {
	return &stockAdjuster{inventoryRepo: ir, movementRepo: mr, now: time.Now}
}

func (a *stockAdjuster) AdjustStock(ctx context.Context, exec repositories.SQLExecutor, change StockChange) (*StockAdjustment, error) {
	result := &StockAdjustment{InventoryItemID: change.ItemID}
	if !rules.IsStockTracked(change.CategoryID) {
		result.Skipped = true
		return result, nil
	}

	item, err := a.inventoryRepo.GetItemForUpdate(ctx, exec, change.CategoryID, change.ItemID)
	if err != nil {
		return nil, storeError(err, ErrInventoryItemNotFound)
	}
	result.ItemName = item.Name

	current := decimal.Zero
	if item.Quantity != nil {
		current = decimal.NewFromFloat(*item.Quantity)
	}
	next := current.Add(decimal.NewFromFloat(change.Delta))
	result.Previous = current.InexactFloat64()

	if next.IsNegative() {
		result.Quantity = result.Previous
		return result, fmt.Errorf("%w: %s has %s %s, needs %s",
			ErrInsufficientStock, item.Name, current.String(), item.Unit, decimal.NewFromFloat(-change.Delta).String())
	}

	now := a.now()
	result.Quantity = next.InexactFloat64()
	if err := a.inventoryRepo.SetQuantity(ctx, exec, item.ID, result.Quantity, now); err != nil {
		return nil, storeError(err, ErrInventoryItemNotFound)
	}

	movement := &models.StockMovement{
		ID:              uuid.NewString(),
		InventoryItemID: item.ID,
		CategoryID:      item.CategoryID,
		UserID:          change.UserID,
		OrderID:         change.OrderID,
		MovementType:    change.MovementType,
		Delta:           change.Delta,
		QuantityAfter:   result.Quantity,
		CreatedAt:       now,
	}
	if change.Reason != "" {
		reason := change.Reason
		movement.Reason = &reason
	}
	if err := a.movementRepo.CreateMovement(ctx, exec, movement); err != nil {
		return nil, storeError(err, nil)
	}

	item.Quantity = &result.Quantity
	result.LowStock = item.IsLowStock()
	return result, nil
}

// isInsufficient reports whether err is a stock shortfall the caller may downgrade to a warning.
func isInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
