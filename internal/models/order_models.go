package models

import "time"

// OrderStatus is the aggregate status of a customer check.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pendente"
	OrderStatusReady     OrderStatus = "Pronto para servir"
	OrderStatusDelivered OrderStatus = "Entregue"
	OrderStatusCancelled OrderStatus = "Cancelado"
	OrderStatusPaid      OrderStatus = "Pago"
)

// IsTerminal reports whether the status can only be left through an explicit action.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// IsValidOrderStatus checks if the provided status string is a known OrderStatus.
func IsValidOrderStatus(status string) bool {
	switch OrderStatus(status) {
	case OrderStatusPending, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled, OrderStatusPaid:
		return true
	default:
		return false
	}
}

// ItemStatus is the kitchen/bar status of a single line item.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusDelivered ItemStatus = "delivered"
	ItemStatusFinished  ItemStatus = "finished"
)

// IsValidItemStatus checks if the provided status string is a known ItemStatus.
func IsValidItemStatus(status string) bool {
	switch ItemStatus(status) {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusDelivered, ItemStatusFinished:
		return true
	default:
		return false
	}
}

// OrderType is where the order is served.
type OrderType string

const (
	OrderTypeTable    OrderType = "table"
	OrderTypeCounter  OrderType = "counter"
	OrderTypeTakeaway OrderType = "takeaway"
)

// IsValidOrderType checks if the provided type string is a known OrderType.
func IsValidOrderType(t string) bool {
	switch OrderType(t) {
	case OrderTypeTable, OrderTypeCounter, OrderTypeTakeaway:
		return true
	default:
		return false
	}
}

// DiscountType selects how DiscountValue is interpreted at order creation.
type DiscountType string

const (
	DiscountNone    DiscountType = ""
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// DietaryFlags marks dietary requirements attached to a line item.
type DietaryFlags struct {
	GlutenFree  bool `json:"gluten_free"`
	LactoseFree bool `json:"lactose_free"`
	Vegetarian  bool `json:"vegetarian"`
	Vegan       bool `json:"vegan"`
}

// OrderItem is one line within an Order.
type OrderItem struct {
	ID              string       `json:"id"`
	InventoryItemID string       `json:"inventory_item_id"`
	Name            string       `json:"name"`
	Category        string       `json:"category"`
	Quantity        int          `json:"quantity"`
	Price           float64      `json:"price"`
	Unit            string       `json:"unit"`
	Status          ItemStatus   `json:"status"`
	Dietary         DietaryFlags `json:"dietary"`
	Notes           string       `json:"notes"`
	// StockDeducted counts the units actually taken from inventory for this line.
	StockDeducted int `json:"stock_deducted"`
}

// PaymentInfo is recorded when an order is closed.
type PaymentInfo struct {
	Method string    `json:"method"`
	Amount float64   `json:"amount"`
	Change float64   `json:"change"`
	PaidAt time.Time `json:"paid_at"`
}

// Order represents one customer check.
type Order struct {
	ID            string       `json:"id" db:"id"`
	UserID        string       `json:"user_id" db:"user_id"`
	Items         []OrderItem  `json:"items" db:"items"`
	Subtotal      float64      `json:"subtotal" db:"subtotal"`
	DiscountType  DiscountType `json:"discount_type,omitempty" db:"discount_type"`
	DiscountValue float64      `json:"discount_value" db:"discount_value"`
	Discount      float64      `json:"discount" db:"discount"`
	Total         float64      `json:"total" db:"total"`
	Status        OrderStatus  `json:"status" db:"status"`
	OrderType     OrderType    `json:"order_type" db:"order_type"`
	TableMapID    *string      `json:"table_map_id,omitempty" db:"table_map_id"`
	TableID       *string      `json:"table_id,omitempty" db:"table_id"`
	WaiterName    string       `json:"waiter_name" db:"waiter_name"`
	Payment       *PaymentInfo `json:"payment,omitempty" db:"payment"`
	Notes         *string      `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
	ClosedAt      *time.Time   `json:"closed_at,omitempty" db:"closed_at"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	Status     *string    `form:"status"`
	TableID    *string    `form:"table_id"`
	OrderType  *string    `form:"order_type"`
	Date       *string    `form:"date"` // Expected format YYYY-MM-DD
	From       *time.Time `form:"-"`
	To         *time.Time `form:"-"`
	ClosedFrom *time.Time `form:"-"`
	ClosedTo   *time.Time `form:"-"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}
