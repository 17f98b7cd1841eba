package models

import "time"

// SalesReportItem is the per-item line of a sales report.
type SalesReportItem struct {
	InventoryItemID string  `json:"inventory_item_id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Kind            string  `json:"kind"`
	TotalQuantity   int     `json:"total_quantity"`
	TotalSales      float64 `json:"total_sales"`
}

// SalesReport aggregates paid orders over a period.
type SalesReport struct {
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	OrdersCount     int                `json:"orders_count"`
	CancelledCount  int                `json:"cancelled_count"`
	Subtotal        float64            `json:"subtotal"`
	TotalDiscount   float64            `json:"total_discount"`
	NetSales        float64            `json:"net_sales"`
	AverageTicket   float64            `json:"average_ticket"`
	ByPaymentMethod map[string]float64 `json:"by_payment_method"`
	ByOrderType     map[string]float64 `json:"by_order_type"`
	ByKind          map[string]float64 `json:"by_kind"`
	Items           []SalesReportItem  `json:"items"`
}

// InventoryReportItem represents data for inventory reports.
type InventoryReportItem struct {
	ItemID      string   `json:"item_id"`
	ItemName    string   `json:"item_name"`
	CategoryID  string   `json:"category_id"`
	Quantity    *float64 `json:"quantity"`
	MinQuantity *float64 `json:"min_quantity"`
	Unit        string   `json:"unit"`
	Status      string   `json:"status"` // "Low Stock", "In Stock", "Out of Stock", "Not Tracked"
}

// ReportRequestParams holds common parameters for requesting reports.
type ReportRequestParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
}
