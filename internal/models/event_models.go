package models

import "time"

// EventType names a change that is pushed to notification and live-feed consumers.
type EventType string

const (
	EventOrderCreated    EventType = "order.created"
	EventOrderUpdated    EventType = "order.updated"
	EventOrderClosed     EventType = "order.closed"
	EventOrderCancelled  EventType = "order.cancelled"
	EventBillRequested   EventType = "order.bill_requested"
	EventTableUpdated    EventType = "table.updated"
	EventInventoryLow    EventType = "inventory.low_stock"
	EventInventoryChange EventType = "inventory.updated"
)

// Feed channels used by live subscribers.
const (
	FeedOrders    = "orders"
	FeedTables    = "tables"
	FeedInventory = "inventory"
)

// Event is the payload published after a successful write.
type Event struct {
	Type            EventType `json:"type"`
	OrderID         string    `json:"order_id,omitempty"`
	TableMapID      string    `json:"table_map_id,omitempty"`
	TableID         string    `json:"table_id,omitempty"`
	InventoryItemID string    `json:"inventory_item_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	Message         string    `json:"message,omitempty"`
	ActorID         string    `json:"actor_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Feed returns the live channel the event belongs to.
func (e Event) Feed() string {
	switch e.Type {
	case EventTableUpdated:
		return FeedTables
	case EventInventoryLow, EventInventoryChange:
		return FeedInventory
	default:
		return FeedOrders
	}
}
