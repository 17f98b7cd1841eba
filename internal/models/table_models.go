package models

import "time"

// TableStatus is the occupancy state of a table.
type TableStatus string

const (
	TableStatusAvailable   TableStatus = "available"
	TableStatusOccupied    TableStatus = "occupied"
	TableStatusOrdering    TableStatus = "ordering"
	TableStatusMaintenance TableStatus = "maintenance"
	TableStatusReserved    TableStatus = "reserved"
	TableStatusBilling     TableStatus = "billing"
)

// IsValidTableStatus checks if the provided status string is a known TableStatus.
func IsValidTableStatus(status string) bool {
	switch TableStatus(status) {
	case TableStatusAvailable, TableStatusOccupied, TableStatusOrdering,
		TableStatusMaintenance, TableStatusReserved, TableStatusBilling:
		return true
	default:
		return false
	}
}

// Table is one entry of a TableMap's embedded tables array.
type Table struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Number        int         `json:"number"`
	Seats         int         `json:"seats"`
	Status        TableStatus `json:"status"`
	ActiveOrderID *string     `json:"active_order_id"`
}

// TableMap is a floor-plan grouping of tables.
type TableMap struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Tables    []Table   `json:"tables" db:"tables"`
	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
