package models

import "time"

// InventoryItem is a stocked or unstocked product, scoped under a category.
// Quantity and MinQuantity stay nil for categories whose items are not counted.
type InventoryItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	CategoryID  string    `json:"category_id" db:"category_id"`
	Quantity    *float64  `json:"quantity" db:"quantity"`
	MinQuantity *float64  `json:"min_quantity" db:"min_quantity"`
	Unit        string    `json:"unit" db:"unit"`
	Price       float64   `json:"price" db:"price"`
	Supplier    *string   `json:"supplier,omitempty" db:"supplier"`
	Description *string   `json:"description,omitempty" db:"description"`
	Version     int64     `json:"version" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether a counted item is at or below its threshold.
func (i *InventoryItem) IsLowStock() bool {
	if i.Quantity == nil || i.MinQuantity == nil {
		return false
	}
	return *i.Quantity <= *i.MinQuantity
}

// Movement types recorded by the stock adjuster.
const (
	MovementTypeSale               = "sale"
	MovementTypeRestock            = "restock"
	MovementTypeReturnCancellation = "return_cancellation"
	MovementTypeQuantityEdit       = "quantity_edit"
)

// StockMovement represents a change in stock for an inventory item
type StockMovement struct {
	ID              string    `json:"id" db:"id"`
	InventoryItemID string    `json:"inventory_item_id" db:"inventory_item_id"`
	CategoryID      string    `json:"category_id" db:"category_id"`
	UserID          *string   `json:"user_id,omitempty" db:"user_id"`
	OrderID         *string   `json:"order_id,omitempty" db:"order_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	Delta           float64   `json:"delta" db:"delta"`
	QuantityAfter   float64   `json:"quantity_after" db:"quantity_after"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// InventoryFilters defines the available filters for listing inventory.
type InventoryFilters struct {
	CategoryID *string
	LowStock   bool
	Page       int
	PageSize   int
}

// MovementFilters defines the available filters for the movement history.
type MovementFilters struct {
	InventoryItemID *string
	OrderID         *string
	MovementType    *string
	Page            int
	PageSize        int
}
